package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/substratehq/substrate/internal/definition"
)

// Step is one lifecycle operation in a scenario.
type Step struct {
	Op     string `yaml:"op"`
	Packet string `yaml:"packet,omitempty"`
	Actor  string `yaml:"actor,omitempty"`
	Role   string `yaml:"role,omitempty"`

	// Operation-specific parameters.
	Notes     string `yaml:"notes,omitempty"`     // done
	Message   string `yaml:"message,omitempty"`   // note
	Reason    string `yaml:"reason,omitempty"`    // fail
	Label     string `yaml:"label,omitempty"`     // snapshot
	To        string `yaml:"to,omitempty"`        // handover
	Progress  string `yaml:"progress,omitempty"`  // handover
	Remaining string `yaml:"remaining,omitempty"` // handover
}

// Scenario is one conformance scenario.
type Scenario struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description,omitempty"`
	Integrity   string              `yaml:"integrity,omitempty"` // plain (default) | hash_chain
	Definition  definition.Document `yaml:"definition"`
	Steps       []Step              `yaml:"steps"`
}

// LoadScenario parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s has no name", path)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	if err := sc.Definition.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %q definition: %w", sc.Name, err)
	}
	return &sc, nil
}
