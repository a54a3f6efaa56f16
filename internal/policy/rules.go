package policy

import (
	"fmt"

	"github.com/substratehq/substrate/internal/state"
)

// Input is one transition request presented for authorization.
type Input struct {
	Actor      state.ActorContext
	PacketID   string
	Transition string       // "claim", "done", ...
	Status     state.Status // current packet status
}

// Rule is the closed sum of match predicates. Concrete types are
// RoleRule, StatusRule and ActorRule; evaluation switches over them
// exhaustively.
type Rule interface {
	// Applies reports whether the rule's predicate matches the input.
	Applies(in Input) bool

	// Meta returns the fields shared by every rule kind.
	Meta() RuleMeta
}

// RuleMeta carries the domain, effect and optional scoping shared by
// all rule kinds.
type RuleMeta struct {
	Kind    state.RuleKind
	Domain  state.Domain
	Effect  state.Effect
	Message string

	// Scoping. Empty matches every packet / transition.
	PacketID   string
	Transition string
}

// inScope checks the shared packet/transition scoping.
func (m RuleMeta) inScope(in Input) bool {
	if m.PacketID != "" && m.PacketID != in.PacketID {
		return false
	}
	if m.Transition != "" && m.Transition != in.Transition {
		return false
	}
	return true
}

// RoleRule matches when the actor's role is in the rule's role set.
type RoleRule struct {
	RuleMeta
	Roles []string
}

func (r RoleRule) Applies(in Input) bool {
	return r.inScope(in) && contains(r.Roles, in.Actor.Role)
}

func (r RoleRule) Meta() RuleMeta { return r.RuleMeta }

// StatusRule matches when the packet's current status is in the set.
type StatusRule struct {
	RuleMeta
	Statuses []string
}

func (r StatusRule) Applies(in Input) bool {
	return r.inScope(in) && contains(r.Statuses, string(in.Status))
}

func (r StatusRule) Meta() RuleMeta { return r.RuleMeta }

// ActorRule matches when the actor's user id is in the set.
type ActorRule struct {
	RuleMeta
	Actors []string
}

func (r ActorRule) Applies(in Input) bool {
	return r.inScope(in) && contains(r.Actors, in.Actor.UserID)
}

func (r ActorRule) Meta() RuleMeta { return r.RuleMeta }

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// validDomains mirrors state.DomainPrecedence as a membership set.
var validDomains = func() map[state.Domain]bool {
	m := make(map[state.Domain]bool, len(state.DomainPrecedence))
	for _, d := range state.DomainPrecedence {
		m[d] = true
	}
	return m
}()

// DecodeDocument converts a serialized policy document into evaluable
// rules, failing closed on any malformed content: missing version,
// unknown domain/effect/kind, or a rule whose match set does not agree
// with its kind.
func DecodeDocument(doc state.PolicyDocument) ([]Rule, error) {
	if doc.Version == "" {
		return nil, fmt.Errorf("policy document is missing a version")
	}

	rules := make([]Rule, 0, len(doc.Rules))
	for i, raw := range doc.Rules {
		rule, err := decodeRule(raw)
		if err != nil {
			return nil, fmt.Errorf("policy %s rule %d: %w", doc.Version, i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func decodeRule(raw state.PolicyRule) (Rule, error) {
	if !validDomains[raw.Domain] {
		return nil, fmt.Errorf("invalid domain %q", raw.Domain)
	}
	if raw.Effect != state.EffectAllow && raw.Effect != state.EffectDeny {
		return nil, fmt.Errorf("invalid effect %q", raw.Effect)
	}

	meta := RuleMeta{
		Kind:       raw.Kind,
		Domain:     raw.Domain,
		Effect:     raw.Effect,
		Message:    raw.Message,
		PacketID:   raw.PacketID,
		Transition: raw.Transition,
	}

	switch raw.Kind {
	case state.RuleKindRole:
		if len(raw.Roles) == 0 {
			return nil, fmt.Errorf("role rule has an empty role set")
		}
		return RoleRule{RuleMeta: meta, Roles: raw.Roles}, nil
	case state.RuleKindStatus:
		if len(raw.Statuses) == 0 {
			return nil, fmt.Errorf("status rule has an empty status set")
		}
		return StatusRule{RuleMeta: meta, Statuses: raw.Statuses}, nil
	case state.RuleKindActor:
		if len(raw.Actors) == 0 {
			return nil, fmt.Errorf("actor rule has an empty actor set")
		}
		return ActorRule{RuleMeta: meta, Actors: raw.Actors}, nil
	default:
		return nil, fmt.Errorf("invalid rule kind %q", raw.Kind)
	}
}
