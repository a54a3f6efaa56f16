package engine

import (
	"fmt"
	"strings"

	"github.com/substratehq/substrate/internal/graph"
	"github.com/substratehq/substrate/internal/ontology"
	"github.com/substratehq/substrate/internal/policy"
	"github.com/substratehq/substrate/internal/state"
)

// policyGate evaluates the governing policy document for a transition.
// Returns the decision and whether any policy document governs at all.
func (e *Engine) policyGate(st *state.GovernanceState, actor state.ActorContext, packetID, transition string) (policy.Decision, bool) {
	doc, ok := policy.ResolveDocument(st, e.defs.Policy)
	if !ok {
		return policy.Decision{Allow: true, Message: "no policy configured"}, false
	}

	status := state.Status("")
	if p, exists := st.Packets[packetID]; exists {
		status = p.Status
	}

	return policy.Evaluate(doc, policy.Input{
		Actor:      actor,
		PacketID:   packetID,
		Transition: transition,
		Status:     status,
	}, st.OPAAdapterResult), true
}

// ontologyGate type-checks the packet's dependency edges.
func (e *Engine) ontologyGate(id string) error {
	return ontology.ValidateDependencyOntology(id, e.defs.EntityTypes(), e.defs.Dependencies)
}

// Claim transitions a pending packet to in_progress for actor.
// Gate order: policy, ontology, then the claim pipeline (referential
// integrity, graph-wide cycle check, dependency completion, status).
func (e *Engine) Claim(id string, actor state.ActorContext) (Result, error) {
	return e.transition("claim", func(st *state.GovernanceState) (Result, error) {
		if e.defs.Packet(id) == nil {
			return reject("unknown packet %q", id), nil
		}

		decision, _ := e.policyGate(st, actor, id, "claim")
		if !decision.Allow {
			res := reject("claim denied by policy: %s", decision.Message)
			res.Payload = map[string]any{"policy": decision}
			return res, nil
		}

		if err := e.ontologyGate(id); err != nil {
			return reject("ontology violation: %v", err), nil
		}

		p, ok := st.Packets[id]
		if !ok {
			return reject("packet %q has no runtime state (run init)", id), nil
		}
		for _, dep := range e.defs.Dependencies[id] {
			if _, ok := st.Packets[dep]; !ok {
				return reject("dependency %q of packet %q has no runtime state (run init)", dep, id), nil
			}
		}

		if cycle := graph.DetectCycle(e.defs.Dependencies); cycle != nil {
			return reject("dependency cycle detected: %s", strings.Join(cycle, " -> ")), nil
		}

		for _, dep := range e.defs.Dependencies[id] {
			if st.Packets[dep].Status != state.StatusDone {
				return reject("Blocked by %s: dependency is %s, must be done", dep, st.Packets[dep].Status), nil
			}
		}

		if p.Status != state.StatusPending {
			return reject("packet %q is not pending (status %s)", id, p.Status), nil
		}

		p.Status = state.StatusInProgress
		p.AssignedTo = actor.UserID
		p.StartedAt = e.now()

		if err := e.appendEntry(st, id, EventStarted, "claim", actor, "", state.StatusInProgress); err != nil {
			return Result{}, err
		}

		return Result{
			OK:      true,
			Message: fmt.Sprintf("packet %q claimed by %s", id, actor.UserID),
			Payload: map[string]any{
				"packet_id":   id,
				"status":      state.StatusInProgress,
				"assigned_to": actor.UserID,
				"policy":      decision,
			},
		}, nil
	})
}

// Done transitions an in_progress packet to done.
func (e *Engine) Done(id string, actor state.ActorContext, notes string) (Result, error) {
	return e.transition("done", func(st *state.GovernanceState) (Result, error) {
		p, ok := st.Packets[id]
		if !ok {
			return reject("unknown packet %q", id), nil
		}

		decision, _ := e.policyGate(st, actor, id, "done")
		if !decision.Allow {
			res := reject("done denied by policy: %s", decision.Message)
			res.Payload = map[string]any{"policy": decision}
			return res, nil
		}

		if p.Status != state.StatusInProgress {
			return reject("packet %q is not in_progress (status %s)", id, p.Status), nil
		}
		if h := p.ActiveHandover(); h != nil {
			return reject("packet %q has an active handover from %s; resume it first", id, h.FromAgent), nil
		}

		p.Status = state.StatusDone
		p.CompletedAt = e.now()
		if notes != "" {
			p.Notes = notes
		}

		if err := e.appendEntry(st, id, EventCompleted, "done", actor, notes, state.StatusDone); err != nil {
			return Result{}, err
		}

		return Result{
			OK:      true,
			Message: fmt.Sprintf("packet %q completed", id),
			Payload: map[string]any{
				"packet_id": id,
				"status":    state.StatusDone,
				"policy":    decision,
			},
		}, nil
	})
}

// Note annotates any existing packet regardless of status. The
// free-form annotation channel deliberately bypasses policy, ontology
// and dependency gates.
func (e *Engine) Note(id string, actor state.ActorContext, msg string) (Result, error) {
	return e.transition("note", func(st *state.GovernanceState) (Result, error) {
		p, ok := st.Packets[id]
		if !ok {
			return reject("unknown packet %q", id), nil
		}

		p.Notes = msg
		if err := e.appendEntry(st, id, EventNoted, "note", actor, msg, p.Status); err != nil {
			return Result{}, err
		}

		return Result{
			OK:      true,
			Message: fmt.Sprintf("packet %q noted", id),
			Payload: map[string]any{"packet_id": id, "notes": msg},
		}, nil
	})
}

// Fail marks a pending or in_progress packet failed and cascades
// blocked status over every transitive dependent still in flight. The
// cascade lands in the same atomic write as the failure, so the two
// cannot diverge.
func (e *Engine) Fail(id string, actor state.ActorContext, reason string) (Result, error) {
	return e.transition("fail", func(st *state.GovernanceState) (Result, error) {
		p, ok := st.Packets[id]
		if !ok {
			return reject("unknown packet %q", id), nil
		}

		decision, _ := e.policyGate(st, actor, id, "fail")
		if !decision.Allow {
			res := reject("fail denied by policy: %s", decision.Message)
			res.Payload = map[string]any{"policy": decision}
			return res, nil
		}

		if p.Status != state.StatusPending && p.Status != state.StatusInProgress {
			return reject("packet %q cannot fail from status %s", id, p.Status), nil
		}
		if h := p.ActiveHandover(); h != nil {
			return reject("packet %q has an active handover from %s; resume it first", id, h.FromAgent), nil
		}

		p.Status = state.StatusFailed
		p.CompletedAt = e.now()
		if reason != "" {
			p.Notes = reason
		}

		if err := e.appendEntry(st, id, EventFailed, "fail", actor, reason, state.StatusFailed); err != nil {
			return Result{}, err
		}

		blocked, err := e.cascadeBlock(st, id, actor)
		if err != nil {
			return Result{}, err
		}

		return Result{
			OK:      true,
			Message: fmt.Sprintf("packet %q failed; %d dependent(s) blocked", id, len(blocked)),
			Payload: map[string]any{
				"packet_id": id,
				"status":    state.StatusFailed,
				"blocked":   blocked,
			},
		}, nil
	})
}

// cascadeBlock walks the reverse dependency graph from failed and sets
// every reachable packet still in {pending, in_progress} to blocked,
// each with its own log entry citing its direct blocker. Idempotent:
// terminal and already-blocked packets are left untouched, but the
// walk continues through them so distant dependents are still caught.
func (e *Engine) cascadeBlock(st *state.GovernanceState, failed string, actor state.ActorContext) ([]string, error) {
	reverse := map[string][]string{}
	for pid, deps := range e.defs.Dependencies {
		for _, dep := range deps {
			reverse[dep] = append(reverse[dep], pid)
		}
	}

	var blocked []string
	seen := map[string]bool{failed: true}
	queue := []string{failed}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for _, dependent := range reverse[node] {
			if seen[dependent] {
				continue
			}
			seen[dependent] = true
			queue = append(queue, dependent)

			p, ok := st.Packets[dependent]
			if !ok {
				continue
			}
			if p.Status != state.StatusPending && p.Status != state.StatusInProgress {
				continue
			}

			p.Status = state.StatusBlocked
			if err := e.appendEntry(st, dependent, EventBlocked, "cascade", actor,
				fmt.Sprintf("blocked by failure of %s", node), state.StatusBlocked); err != nil {
				return nil, err
			}
			blocked = append(blocked, dependent)
		}
	}
	return blocked, nil
}

// Reset returns an in_progress packet to pending, clearing ownership.
func (e *Engine) Reset(id string, actor state.ActorContext) (Result, error) {
	return e.transition("reset", func(st *state.GovernanceState) (Result, error) {
		p, ok := st.Packets[id]
		if !ok {
			return reject("unknown packet %q", id), nil
		}

		decision, _ := e.policyGate(st, actor, id, "reset")
		if !decision.Allow {
			res := reject("reset denied by policy: %s", decision.Message)
			res.Payload = map[string]any{"policy": decision}
			return res, nil
		}

		if p.Status != state.StatusInProgress {
			return reject("packet %q is not in_progress (status %s)", id, p.Status), nil
		}

		p.Status = state.StatusPending
		p.AssignedTo = ""
		p.StartedAt = ""

		if err := e.appendEntry(st, id, EventReset, "reset", actor, "", state.StatusPending); err != nil {
			return Result{}, err
		}

		return Result{
			OK:      true,
			Message: fmt.Sprintf("packet %q reset to pending", id),
			Payload: map[string]any{"packet_id": id, "status": state.StatusPending},
		}, nil
	})
}
