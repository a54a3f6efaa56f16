package engine

import (
	"fmt"

	"github.com/substratehq/substrate/internal/policy"
	"github.com/substratehq/substrate/internal/state"
)

// RegisterPolicy records a draft policy version in the document's
// registry. The draft is validated up front so a document that would
// fail closed cannot be registered at all.
func (e *Engine) RegisterPolicy(doc state.PolicyDocument, actor state.ActorContext, rationale string) (Result, error) {
	return e.transition("policy-register", func(st *state.GovernanceState) (Result, error) {
		if err := policy.RegisterDraft(st, doc, actor, rationale, e.now()); err != nil {
			return reject("%v", err), nil
		}

		if err := e.appendEntry(st, "", EventPolicyRegister, "policy-register", actor,
			fmt.Sprintf("draft policy %s registered", doc.Version), ""); err != nil {
			return Result{}, err
		}

		return Result{
			OK:      true,
			Message: fmt.Sprintf("policy version %q registered as draft", doc.Version),
			Payload: map[string]any{"version": doc.Version},
		}, nil
	})
}

// ActivatePolicy promotes a registered draft to the single active
// version, superseding the prior one.
func (e *Engine) ActivatePolicy(version string, actor state.ActorContext, approvals []string, rationale string) (Result, error) {
	return e.transition("policy-activate", func(st *state.GovernanceState) (Result, error) {
		if err := policy.Activate(st, version, actor, approvals, rationale, e.now()); err != nil {
			return reject("%v", err), nil
		}

		if err := e.appendEntry(st, "", EventPolicyActivated, "policy-activate", actor,
			fmt.Sprintf("policy %s activated", version), ""); err != nil {
			return Result{}, err
		}

		return Result{
			OK:      true,
			Message: fmt.Sprintf("policy version %q is now active", version),
			Payload: map[string]any{"version": version, "approvals": approvals},
		}, nil
	})
}
