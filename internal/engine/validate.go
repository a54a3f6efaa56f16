package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/substratehq/substrate/internal/graph"
	"github.com/substratehq/substrate/internal/state"
)

// Validate runs the structural self-check: well-formed shape, acyclic
// dependency graph, valid ontology per packet, and every dependency id
// resolvable. Read-only; reports all issues found rather than stopping
// at the first.
func (e *Engine) Validate() (Result, error) {
	st, err := e.store.Read()
	if err != nil {
		return Result{}, err
	}

	var issues []string

	for id, p := range st.Packets {
		if !state.ValidStatuses[p.Status] {
			issues = append(issues, fmt.Sprintf("packet %q has invalid status %q", id, p.Status))
		}
		active := 0
		for _, h := range p.Handovers {
			if h.Active {
				active++
			}
		}
		if active > 1 {
			issues = append(issues, fmt.Sprintf("packet %q has %d active handovers", id, active))
		}
	}

	for _, p := range e.defs.Packets {
		if _, ok := st.Packets[p.ID]; !ok {
			issues = append(issues, fmt.Sprintf("definition packet %q has no runtime state (run init)", p.ID))
		}
	}

	for id, deps := range e.defs.Dependencies {
		if e.defs.Packet(id) == nil {
			issues = append(issues, fmt.Sprintf("dependencies declared for unknown packet %q", id))
		}
		for _, dep := range deps {
			if e.defs.Packet(dep) == nil {
				issues = append(issues, fmt.Sprintf("packet %q depends on unknown packet %q", id, dep))
			}
		}
	}

	if cycle := graph.DetectCycle(e.defs.Dependencies); cycle != nil {
		issues = append(issues, fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")))
	}

	ids := make([]string, 0, len(e.defs.Packets))
	for _, p := range e.defs.Packets {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := e.ontologyGate(id); err != nil {
			issues = append(issues, fmt.Sprintf("ontology: %v", err))
		}
	}

	if len(issues) > 0 {
		return Result{
			OK:      false,
			Message: fmt.Sprintf("validation found %d issue(s)", len(issues)),
			Payload: map[string]any{"issues": issues},
		}, nil
	}
	return Result{
		OK:      true,
		Message: "governance state is structurally valid",
		Payload: map[string]any{"packets": len(st.Packets)},
	}, nil
}
