package engine

import (
	"fmt"

	"github.com/substratehq/substrate/internal/state"
)

// Handover suspends ownership of a packet without changing its status.
// Only the current owner may hand over, and only one handover may be
// active at a time; done/fail are gated until someone resumes.
func (e *Engine) Handover(id string, actor state.ActorContext, toAgent, progressNotes, remainingWork string) (Result, error) {
	return e.transition("handover", func(st *state.GovernanceState) (Result, error) {
		p, ok := st.Packets[id]
		if !ok {
			return reject("unknown packet %q", id), nil
		}

		if p.AssignedTo != actor.UserID {
			return reject("packet %q is owned by %q, not %q", id, p.AssignedTo, actor.UserID), nil
		}
		if h := p.ActiveHandover(); h != nil {
			return reject("packet %q already has an active handover from %s", id, h.FromAgent), nil
		}

		p.Handovers = append(p.Handovers, state.Handover{
			Active:        true,
			FromAgent:     actor.UserID,
			ToAgent:       toAgent,
			ProgressNotes: progressNotes,
			RemainingWork: remainingWork,
			CreatedAt:     e.now(),
		})

		notes := fmt.Sprintf("handover from %s", actor.UserID)
		if toAgent != "" {
			notes = fmt.Sprintf("handover from %s to %s", actor.UserID, toAgent)
		}
		if err := e.appendEntry(st, id, EventHandover, "handover", actor, notes, p.Status); err != nil {
			return Result{}, err
		}

		return Result{
			OK:      true,
			Message: fmt.Sprintf("packet %q handed over", id),
			Payload: map[string]any{
				"packet_id": id,
				"to_agent":  toAgent,
			},
		}, nil
	})
}

// Resume takes over the packet's single active handover. When the
// handover named a specific to_agent, only that actor may resume.
func (e *Engine) Resume(id string, actor state.ActorContext) (Result, error) {
	return e.transition("resume", func(st *state.GovernanceState) (Result, error) {
		p, ok := st.Packets[id]
		if !ok {
			return reject("unknown packet %q", id), nil
		}

		h := p.ActiveHandover()
		if h == nil {
			return reject("packet %q has no active handover", id), nil
		}
		if h.ToAgent != "" && h.ToAgent != actor.UserID {
			return reject("handover on packet %q is reserved for %q", id, h.ToAgent), nil
		}

		h.Active = false
		h.ResumedBy = actor.UserID
		h.ResumedAt = e.now()
		p.AssignedTo = actor.UserID

		if err := e.appendEntry(st, id, EventResumed, "resume", actor,
			fmt.Sprintf("resumed from %s", h.FromAgent), p.Status); err != nil {
			return Result{}, err
		}

		return Result{
			OK:      true,
			Message: fmt.Sprintf("packet %q resumed by %s", id, actor.UserID),
			Payload: map[string]any{
				"packet_id":   id,
				"assigned_to": actor.UserID,
			},
		}, nil
	})
}
