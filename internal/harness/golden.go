package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/substratehq/substrate/internal/state"
)

// snapshotMap projects a result into the plain map shape canonical
// JSON accepts. Empty strings are omitted so the golden files stay
// readable.
func snapshotMap(r *Result) map[string]any {
	steps := make([]any, len(r.Steps))
	for i, s := range r.Steps {
		m := map[string]any{
			"op":      s.Op,
			"ok":      s.OK,
			"message": s.Message,
		}
		if s.Packet != "" {
			m["packet"] = s.Packet
		}
		steps[i] = m
	}

	statuses := map[string]any{}
	for _, id := range r.sortedStatusIDs() {
		statuses[id] = string(r.Statuses[id])
	}

	events := make([]any, len(r.Events))
	for i, e := range r.Events {
		m := map[string]any{
			"event": e.Event,
			"actor": e.Actor,
		}
		if e.PacketID != "" {
			m["packet_id"] = e.PacketID
		}
		if e.Notes != "" {
			m["notes"] = e.Notes
		}
		if e.ExitState != "" {
			m["exit_state"] = e.ExitState
		}
		events[i] = m
	}

	return map[string]any{
		"scenario": r.Scenario,
		"steps":    steps,
		"statuses": statuses,
		"events":   events,
	}
}

// RunWithGolden executes a scenario and compares its canonical trace
// against testdata/golden/{scenario.Name}.golden.
func RunWithGolden(t *testing.T, scenario *Scenario, statePath string) {
	t.Helper()

	result, err := Run(scenario, statePath)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}

	trace, err := state.MarshalCanonical(snapshotMap(result))
	if err != nil {
		t.Fatalf("marshal trace for %s: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, trace)
}
