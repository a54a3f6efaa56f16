package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substratehq/substrate/internal/state"
)

func claimInput() Input {
	return Input{
		Actor:      state.ActorContext{UserID: "agent-1", Role: "engineer", Source: "cli"},
		PacketID:   "pkt-1",
		Transition: "claim",
		Status:     state.StatusPending,
	}
}

func roleRule(domain state.Domain, effect state.Effect, roles ...string) state.PolicyRule {
	return state.PolicyRule{Kind: state.RuleKindRole, Domain: domain, Effect: effect, Roles: roles}
}

func TestEvaluateDefaultAllow(t *testing.T) {
	doc := state.PolicyDocument{Version: "v1"}

	d := Evaluate(doc, claimInput(), nil)
	assert.True(t, d.Allow)
	assert.Equal(t, "v1", d.PolicyVersion)
	assert.Contains(t, d.Message, "no applicable rule")
}

func TestEvaluateNonMatchingRulesDefaultAllow(t *testing.T) {
	doc := state.PolicyDocument{
		Version: "v1",
		Rules:   []state.PolicyRule{roleRule(state.DomainGovernance, state.EffectDeny, "intern")},
	}

	d := Evaluate(doc, claimInput(), nil)
	assert.True(t, d.Allow, "a non-applicable deny must not fire")
}

func TestEvaluateDenyWins(t *testing.T) {
	doc := state.PolicyDocument{
		Version: "v1",
		Rules:   []state.PolicyRule{roleRule(state.DomainGovernance, state.EffectDeny, "engineer")},
	}

	d := Evaluate(doc, claimInput(), nil)
	assert.False(t, d.Allow)
	assert.Contains(t, d.Message, "governance")
}

func TestEvaluateHigherDomainDenyBeatsLowerAllow(t *testing.T) {
	// Governance allow listed FIRST in document order; constitutional
	// deny must still win - precedence beats document order.
	doc := state.PolicyDocument{
		Version: "v2",
		Rules: []state.PolicyRule{
			roleRule(state.DomainGovernance, state.EffectAllow, "engineer"),
			roleRule(state.DomainConstitutional, state.EffectDeny, "engineer"),
		},
	}

	d := Evaluate(doc, claimInput(), nil)
	assert.False(t, d.Allow)
	assert.Contains(t, d.Message, "constitutional")
}

func TestEvaluateAllowContinuesTracingLowerDomains(t *testing.T) {
	doc := state.PolicyDocument{
		Version: "v3",
		Rules: []state.PolicyRule{
			roleRule(state.DomainConstitutional, state.EffectAllow, "engineer"),
			roleRule(state.DomainEnvironment, state.EffectDeny, "engineer"),
		},
	}

	d := Evaluate(doc, claimInput(), nil)
	assert.True(t, d.Allow, "a lower-precedence deny cannot reverse a higher allow")
	require.Len(t, d.Trace, 2, "lower domains are still traced")
	assert.Equal(t, state.DomainConstitutional, d.Trace[0].Domain)
	assert.Equal(t, state.DomainEnvironment, d.Trace[1].Domain)
}

func TestEvaluateFirstMatchWinsWithinDomain(t *testing.T) {
	doc := state.PolicyDocument{
		Version: "v4",
		Rules: []state.PolicyRule{
			roleRule(state.DomainGovernance, state.EffectDeny, "engineer"),
			roleRule(state.DomainGovernance, state.EffectAllow, "engineer"),
		},
	}

	d := Evaluate(doc, claimInput(), nil)
	assert.False(t, d.Allow, "first applicable rule in document order decides")
}

func TestEvaluateStatusAndActorRules(t *testing.T) {
	doc := state.PolicyDocument{
		Version: "v5",
		Rules: []state.PolicyRule{
			{Kind: state.RuleKindStatus, Domain: state.DomainRisk, Effect: state.EffectDeny, Statuses: []string{"blocked", "failed"}},
			{Kind: state.RuleKindActor, Domain: state.DomainCapability, Effect: state.EffectDeny, Actors: []string{"banned-agent"}},
		},
	}

	in := claimInput()
	d := Evaluate(doc, in, nil)
	assert.True(t, d.Allow)

	in.Status = state.StatusBlocked
	d = Evaluate(doc, in, nil)
	assert.False(t, d.Allow)

	in = claimInput()
	in.Actor.UserID = "banned-agent"
	d = Evaluate(doc, in, nil)
	assert.False(t, d.Allow)
}

func TestEvaluateScopedRule(t *testing.T) {
	doc := state.PolicyDocument{
		Version: "v6",
		Rules: []state.PolicyRule{
			{Kind: state.RuleKindRole, Domain: state.DomainGovernance, Effect: state.EffectDeny,
				Roles: []string{"engineer"}, PacketID: "pkt-other", Transition: "done"},
		},
	}

	d := Evaluate(doc, claimInput(), nil)
	assert.True(t, d.Allow, "rule scoped to another packet/transition must not apply")

	in := claimInput()
	in.PacketID = "pkt-other"
	in.Transition = "done"
	d = Evaluate(doc, in, nil)
	assert.False(t, d.Allow)
}

func TestEvaluateMalformedDocumentFailsClosed(t *testing.T) {
	cases := map[string]state.PolicyDocument{
		"missing version": {Rules: []state.PolicyRule{roleRule(state.DomainGovernance, state.EffectAllow, "engineer")}},
		"invalid domain":  {Version: "v1", Rules: []state.PolicyRule{roleRule("cosmic", state.EffectAllow, "engineer")}},
		"invalid effect":  {Version: "v1", Rules: []state.PolicyRule{roleRule(state.DomainGovernance, "maybe", "engineer")}},
		"invalid kind":    {Version: "v1", Rules: []state.PolicyRule{{Kind: "vibe", Domain: state.DomainGovernance, Effect: state.EffectAllow}}},
		"empty role set":  {Version: "v1", Rules: []state.PolicyRule{{Kind: state.RuleKindRole, Domain: state.DomainGovernance, Effect: state.EffectAllow}}},
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			d := Evaluate(doc, claimInput(), nil)
			assert.False(t, d.Allow, "malformed document must fail closed")
			assert.Contains(t, d.Message, "fail closed")
		})
	}
}

func TestEvaluateExternalDeferral(t *testing.T) {
	base := state.PolicyDocument{Version: "v1", OPA: &state.OPAConfig{Enabled: true, Mode: OPAModeRequired}}

	t.Run("absent and required denies", func(t *testing.T) {
		d := Evaluate(base, claimInput(), nil)
		assert.False(t, d.Allow)
		assert.Contains(t, d.Message, "decision unavailable")
	})

	t.Run("absent and optional falls back to native allow", func(t *testing.T) {
		doc := base
		doc.OPA = &state.OPAConfig{Enabled: true, Mode: OPAModeOptional}
		d := Evaluate(doc, claimInput(), nil)
		assert.True(t, d.Allow)
	})

	t.Run("present decision is trusted", func(t *testing.T) {
		d := Evaluate(base, claimInput(), &state.OPAResult{Allow: false, Reason: "quota exhausted"})
		assert.False(t, d.Allow)
		assert.Equal(t, "quota exhausted", d.Message)

		d = Evaluate(base, claimInput(), &state.OPAResult{Allow: true})
		assert.True(t, d.Allow)
		require.NotEmpty(t, d.Trace)
		assert.Contains(t, d.Trace[len(d.Trace)-1].Note, "external decision")
	})

	t.Run("native deny skips deferral", func(t *testing.T) {
		doc := base
		doc.Rules = []state.PolicyRule{roleRule(state.DomainConstitutional, state.EffectDeny, "engineer")}
		d := Evaluate(doc, claimInput(), &state.OPAResult{Allow: true})
		assert.False(t, d.Allow, "external allow cannot override a native deny")
	})
}
