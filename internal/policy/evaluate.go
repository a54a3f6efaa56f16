package policy

import (
	"fmt"

	"github.com/substratehq/substrate/internal/state"
)

// TraceEntry records one rule consultation during evaluation,
// surfaced verbatim to callers for audit display.
type TraceEntry struct {
	Domain  state.Domain   `json:"domain"`
	Kind    state.RuleKind `json:"kind,omitempty"`
	Effect  state.Effect   `json:"effect,omitempty"`
	Applied bool           `json:"applied"`
	Note    string         `json:"note,omitempty"`
}

// Decision is the outcome of policy evaluation.
type Decision struct {
	Allow         bool         `json:"allow"`
	Message       string       `json:"message"`
	Trace         []TraceEntry `json:"trace,omitempty"`
	PolicyVersion string       `json:"policy_version,omitempty"`
}

// Deferral modes for the external decision point.
const (
	OPAModeRequired = "required"
	OPAModeOptional = "optional"
)

// Evaluate authorizes one transition against doc, consulting the
// external decision external (from state.opa_adapter_result, may be
// nil) when the document enables deferral.
//
// A malformed document denies everything it governs (fail closed) with
// the decode diagnostic as the message.
func Evaluate(doc state.PolicyDocument, in Input, external *state.OPAResult) Decision {
	rules, err := DecodeDocument(doc)
	if err != nil {
		return Decision{
			Allow:         false,
			Message:       fmt.Sprintf("policy rejected (fail closed): %v", err),
			PolicyVersion: doc.Version,
		}
	}

	decision := evaluateNative(doc.Version, rules, in)
	if !decision.Allow {
		return decision
	}
	return deferToExternal(doc, decision, external)
}

// evaluateNative walks domains in precedence order, document order
// within a domain. The first applicable rule at the highest domain is
// decisive; deny short-circuits, allow continues collecting trace.
func evaluateNative(version string, rules []Rule, in Input) Decision {
	decision := Decision{Allow: true, Message: "allowed (no applicable rule)", PolicyVersion: version}
	decided := false

	for _, domain := range state.DomainPrecedence {
		domainDecided := false
		for _, rule := range rules {
			meta := rule.Meta()
			if meta.Domain != domain {
				continue
			}
			if !rule.Applies(in) {
				continue
			}

			entry := TraceEntry{
				Domain:  domain,
				Kind:    meta.Kind,
				Effect:  meta.Effect,
				Applied: true,
				Note:    meta.Message,
			}
			decision.Trace = append(decision.Trace, entry)

			if domainDecided || decided {
				// Lower-precedence (or later same-domain) matches are
				// trace-only; they cannot reverse the standing allow.
				continue
			}
			domainDecided = true
			decided = true

			if meta.Effect == state.EffectDeny {
				decision.Allow = false
				decision.Message = denyMessage(meta, domain)
				return decision
			}
			decision.Message = allowMessage(meta, domain)
		}
	}
	return decision
}

// deferToExternal applies the OPA-style deferral after a native allow.
func deferToExternal(doc state.PolicyDocument, decision Decision, external *state.OPAResult) Decision {
	if doc.OPA == nil || !doc.OPA.Enabled {
		return decision
	}

	if external == nil {
		if doc.OPA.Mode == OPAModeRequired {
			decision.Allow = false
			decision.Message = "denied: external policy decision unavailable"
			decision.Trace = append(decision.Trace, TraceEntry{
				Domain: state.DomainGovernance,
				Note:   "external decision required but absent",
			})
			return decision
		}
		decision.Trace = append(decision.Trace, TraceEntry{
			Domain: state.DomainGovernance,
			Note:   "external decision absent; native allow stands",
		})
		return decision
	}

	decision.Allow = external.Allow
	if external.Reason != "" {
		decision.Message = external.Reason
	} else if external.Allow {
		decision.Message = "allowed by external policy"
	} else {
		decision.Message = "denied by external policy"
	}
	decision.Trace = append(decision.Trace, TraceEntry{
		Domain:  state.DomainGovernance,
		Applied: true,
		Note:    fmt.Sprintf("external decision: allow=%t", external.Allow),
	})
	return decision
}

func denyMessage(meta RuleMeta, domain state.Domain) string {
	if meta.Message != "" {
		return meta.Message
	}
	return fmt.Sprintf("denied by %s %s rule", domain, meta.Kind)
}

func allowMessage(meta RuleMeta, domain state.Domain) string {
	if meta.Message != "" {
		return meta.Message
	}
	return fmt.Sprintf("allowed by %s %s rule", domain, meta.Kind)
}
