package harness

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/substratehq/substrate/internal/engine"
	"github.com/substratehq/substrate/internal/state"
	"github.com/substratehq/substrate/internal/storage"
	"github.com/substratehq/substrate/internal/testutil"
)

// StepResult records one executed step's outcome.
type StepResult struct {
	Op      string
	Packet  string
	OK      bool
	Message string
}

// EventRecord is the stable projection of one audit entry. Timestamps,
// event ids and hashes are excluded so the projection is identical
// across runs.
type EventRecord struct {
	Event     string
	PacketID  string
	Actor     string
	Notes     string
	ExitState string
}

// Result is a completed scenario run.
type Result struct {
	Scenario string
	Steps    []StepResult
	Statuses map[string]state.Status
	Events   []EventRecord
}

// Run executes a scenario against a fresh state document at statePath
// with a deterministic clock. Unknown ops and engine I/O problems are
// returned as errors; gate rejections are recorded as failed steps and
// execution continues, so scenarios can assert on rejection messages.
func Run(scenario *Scenario, statePath string) (*Result, error) {
	store := storage.New(statePath, storage.WithLogger(discardLogger()))
	eng := engine.New(store, &scenario.Definition,
		engine.WithClock(testutil.NewDefaultClock()),
		engine.WithLogger(discardLogger()),
	)

	result := &Result{Scenario: scenario.Name}

	for i, step := range scenario.Steps {
		actor := state.ActorContext{UserID: step.Actor, Role: step.Role, Source: "harness"}

		var (
			res engine.Result
			err error
		)
		switch step.Op {
		case "init":
			res, err = eng.Init(state.IntegrityMode(scenario.Integrity), actor)
		case "claim":
			res, err = eng.Claim(step.Packet, actor)
		case "done":
			res, err = eng.Done(step.Packet, actor, step.Notes)
		case "note":
			res, err = eng.Note(step.Packet, actor, step.Message)
		case "fail":
			res, err = eng.Fail(step.Packet, actor, step.Reason)
		case "reset":
			res, err = eng.Reset(step.Packet, actor)
		case "handover":
			res, err = eng.Handover(step.Packet, actor, step.To, step.Progress, step.Remaining)
		case "resume":
			res, err = eng.Resume(step.Packet, actor)
		case "snapshot":
			res, err = eng.Snapshot(step.Label, actor)
		default:
			return nil, fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}

		result.Steps = append(result.Steps, StepResult{
			Op:      step.Op,
			Packet:  step.Packet,
			OK:      res.OK,
			Message: res.Message,
		})
	}

	st, err := eng.State()
	if err != nil {
		return nil, fmt.Errorf("read final state: %w", err)
	}

	result.Statuses = make(map[string]state.Status, len(st.Packets))
	for id, p := range st.Packets {
		result.Statuses[id] = p.Status
	}
	for _, entry := range st.Log {
		result.Events = append(result.Events, EventRecord{
			Event:     entry.Event,
			PacketID:  entry.PacketID,
			Actor:     entry.Actor,
			Notes:     entry.Notes,
			ExitState: entry.ExitState,
		})
	}

	return result, nil
}

// sortedStatusIDs returns the packet ids of a result in stable order.
func (r *Result) sortedStatusIDs() []string {
	ids := make([]string, 0, len(r.Statuses))
	for id := range r.Statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
