package engine

import (
	"fmt"
	"sort"

	"github.com/substratehq/substrate/internal/state"
)

// Snapshot deep-copies the packets map under a unique label.
// A duplicate label is rejected, never overwritten.
func (e *Engine) Snapshot(label string, actor state.ActorContext) (Result, error) {
	if label == "" {
		return reject("snapshot label must not be empty"), nil
	}

	return e.transition("snapshot", func(st *state.GovernanceState) (Result, error) {
		if st.Snapshots == nil {
			st.Snapshots = map[string]*state.Snapshot{}
		}
		if _, exists := st.Snapshots[label]; exists {
			return reject("snapshot label %q already exists", label), nil
		}

		st.Snapshots[label] = &state.Snapshot{
			Label:     label,
			CreatedAt: e.now(),
			CreatedBy: actor.UserID,
			Packets:   st.ClonePackets(),
		}

		if err := e.appendEntry(st, "", EventSnapshot, "snapshot", actor, label, ""); err != nil {
			return Result{}, err
		}

		return Result{
			OK:      true,
			Message: fmt.Sprintf("snapshot %q captured (%d packets)", label, len(st.Packets)),
			Payload: map[string]any{"label": label, "packets": len(st.Packets)},
		}, nil
	})
}

// PacketDiff is the per-id difference between two snapshots. Absent
// sides are nil.
type PacketDiff struct {
	A *state.PacketRuntimeState `json:"a"`
	B *state.PacketRuntimeState `json:"b"`
}

// Diff reports only the per-id entries that differ between two
// snapshots. Read-only.
func (e *Engine) Diff(labelA, labelB string) (Result, error) {
	st, err := e.store.Read()
	if err != nil {
		return Result{}, err
	}

	snapA, okA := st.Snapshots[labelA]
	if !okA {
		return reject("unknown snapshot %q", labelA), nil
	}
	snapB, okB := st.Snapshots[labelB]
	if !okB {
		return reject("unknown snapshot %q", labelB), nil
	}

	ids := map[string]bool{}
	for id := range snapA.Packets {
		ids[id] = true
	}
	for id := range snapB.Packets {
		ids[id] = true
	}

	changed := map[string]PacketDiff{}
	for id := range ids {
		a := snapA.Packets[id]
		b := snapB.Packets[id]
		if !packetsEqual(a, b) {
			changed[id] = PacketDiff{A: a, B: b}
		}
	}

	var changedIDs []string
	for id := range changed {
		changedIDs = append(changedIDs, id)
	}
	sort.Strings(changedIDs)

	return Result{
		OK:      true,
		Message: fmt.Sprintf("%d packet(s) differ between %q and %q", len(changed), labelA, labelB),
		Payload: map[string]any{
			"changed_ids": changedIDs,
			"changes":     changed,
		},
	}, nil
}

func packetsEqual(a, b *state.PacketRuntimeState) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Status != b.Status || a.AssignedTo != b.AssignedTo ||
		a.StartedAt != b.StartedAt || a.CompletedAt != b.CompletedAt ||
		a.Notes != b.Notes || len(a.Handovers) != len(b.Handovers) {
		return false
	}
	for i := range a.Handovers {
		if a.Handovers[i] != b.Handovers[i] {
			return false
		}
	}
	return true
}
