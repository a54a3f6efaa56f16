// Package definition loads and validates the immutable project
// declaration: packets, their dependency adjacency, and the optional
// inline policy document.
//
// Two source formats are supported: CUE (validated with position-aware
// diagnostics) and YAML (which subsumes JSON). Both normalize into the
// same Document, so the engine never knows which format fed it.
package definition

import (
	"fmt"

	"github.com/substratehq/substrate/internal/ontology"
	"github.com/substratehq/substrate/internal/policy"
	"github.com/substratehq/substrate/internal/state"
)

// PacketDef declares one packet. Immutable input; runtime lifecycle
// lives in the governance document, never here.
type PacketDef struct {
	ID         string `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	EntityType string `json:"entity_type,omitempty" yaml:"entity_type,omitempty"`
}

// Document is the parsed project declaration.
type Document struct {
	Packets      []PacketDef           `json:"packets" yaml:"packets"`
	Dependencies map[string][]string   `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Policy       *state.PolicyDocument `json:"policy,omitempty" yaml:"policy,omitempty"`
}

// EntityTypes maps packet ids to their declared entity types for
// ontology validation. Packets without a declaration are omitted; the
// validator applies the Packet default.
func (d *Document) EntityTypes() map[string]ontology.EntityType {
	types := make(map[string]ontology.EntityType, len(d.Packets))
	for _, p := range d.Packets {
		if p.EntityType != "" {
			types[p.ID] = ontology.EntityType(p.EntityType)
		}
	}
	return types
}

// Packet returns the definition for id, or nil.
func (d *Document) Packet(id string) *PacketDef {
	for i := range d.Packets {
		if d.Packets[i].ID == id {
			return &d.Packets[i]
		}
	}
	return nil
}

// Validate checks referential integrity of the declaration: non-empty
// unique ids, every dependency endpoint declared, and a decodable
// inline policy document when present.
func (d *Document) Validate() error {
	if len(d.Packets) == 0 {
		return fmt.Errorf("definition declares no packets")
	}

	seen := make(map[string]bool, len(d.Packets))
	for i, p := range d.Packets {
		if p.ID == "" {
			return fmt.Errorf("packet %d has an empty id", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate packet id %q", p.ID)
		}
		seen[p.ID] = true
	}

	for id, deps := range d.Dependencies {
		if !seen[id] {
			return fmt.Errorf("dependencies declared for unknown packet %q", id)
		}
		for _, dep := range deps {
			if !seen[dep] {
				return fmt.Errorf("packet %q depends on unknown packet %q", id, dep)
			}
		}
	}

	if d.Policy != nil {
		if _, err := policy.DecodeDocument(*d.Policy); err != nil {
			return fmt.Errorf("inline policy: %w", err)
		}
	}
	return nil
}
