package policy

import (
	"fmt"

	"github.com/substratehq/substrate/internal/state"
)

// ResolveDocument selects the policy document governing a transition:
// the registry's active version when one is set, otherwise the
// definition's inline document. Returns (zero document, false) when
// neither source provides one - callers then skip policy gating.
func ResolveDocument(st *state.GovernanceState, inline *state.PolicyDocument) (state.PolicyDocument, bool) {
	if st.PolicyRegistry != nil && st.PolicyRegistry.ActiveVersion != "" {
		if rec, ok := st.PolicyRegistry.Versions[st.PolicyRegistry.ActiveVersion]; ok {
			return rec.Document, true
		}
	}
	if inline != nil {
		return *inline, true
	}
	return state.PolicyDocument{}, false
}

// RegisterDraft adds a draft policy version to the document's registry.
// The draft must decode cleanly - a document that would fail closed at
// evaluation time is rejected at registration instead.
func RegisterDraft(st *state.GovernanceState, doc state.PolicyDocument, actor state.ActorContext, rationale, now string) error {
	if _, err := DecodeDocument(doc); err != nil {
		return fmt.Errorf("register draft: %w", err)
	}

	if st.PolicyRegistry == nil {
		st.PolicyRegistry = &state.PolicyRegistry{Versions: map[string]*state.PolicyVersionRecord{}}
	}
	if _, exists := st.PolicyRegistry.Versions[doc.Version]; exists {
		return fmt.Errorf("register draft: policy version %q already registered", doc.Version)
	}

	st.PolicyRegistry.Versions[doc.Version] = &state.PolicyVersionRecord{
		Document:     doc,
		Status:       state.PolicyVersionDraft,
		RegisteredBy: actor.UserID,
		RegisteredAt: now,
		Rationale:    rationale,
	}
	return nil
}

// Activate promotes a registered draft to the single active version,
// recording approvals and rationale and marking the prior active
// version superseded.
func Activate(st *state.GovernanceState, version string, actor state.ActorContext, approvals []string, rationale, now string) error {
	if st.PolicyRegistry == nil {
		return fmt.Errorf("activate policy: no versions registered")
	}
	rec, ok := st.PolicyRegistry.Versions[version]
	if !ok {
		return fmt.Errorf("activate policy: version %q is not registered", version)
	}
	if rec.Status == state.PolicyVersionActive {
		return fmt.Errorf("activate policy: version %q is already active", version)
	}

	if prev := st.PolicyRegistry.ActiveVersion; prev != "" && prev != version {
		if prevRec, ok := st.PolicyRegistry.Versions[prev]; ok {
			prevRec.Status = state.PolicyVersionSuperseded
		}
	}

	rec.Status = state.PolicyVersionActive
	rec.ActivatedBy = actor.UserID
	rec.ActivatedAt = now
	rec.Approvals = approvals
	if rationale != "" {
		rec.Rationale = rationale
	}
	st.PolicyRegistry.ActiveVersion = version
	return nil
}
