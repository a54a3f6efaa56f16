package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substratehq/substrate/internal/definition"
	"github.com/substratehq/substrate/internal/state"
)

func denyInternsDoc(version string) state.PolicyDocument {
	return state.PolicyDocument{
		Version: version,
		Rules: []state.PolicyRule{
			{
				Kind:    state.RuleKindRole,
				Domain:  state.DomainGovernance,
				Effect:  state.EffectDeny,
				Roles:   []string{"intern"},
				Message: "interns may not drive governance transitions",
			},
		},
	}
}

func TestInlinePolicyGatesClaim(t *testing.T) {
	defs := &definition.Document{
		Packets: []definition.PacketDef{{ID: "a"}},
	}
	doc := denyInternsDoc("v1")
	defs.Policy = &doc
	e := newTestEngine(t, defs)
	mustInit(t, e)

	intern := state.ActorContext{UserID: "zed", Role: "intern", Source: "cli"}
	res, err := e.Claim("a", intern)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "denied by policy")
	assert.Contains(t, res.Message, "interns may not")

	// A non-matching role sails through.
	res, err = e.Claim("a", testActor)
	require.NoError(t, err)
	assert.True(t, res.OK, res.Message)
}

func TestRegisterAndActivatePolicy(t *testing.T) {
	defs := &definition.Document{Packets: []definition.PacketDef{{ID: "a"}}}
	e := newTestEngine(t, defs)
	mustInit(t, e)

	res, err := e.RegisterPolicy(denyInternsDoc("v1"), testActor, "tighten access")
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)

	// A draft does not govern yet.
	intern := state.ActorContext{UserID: "zed", Role: "intern", Source: "cli"}
	res, err = e.Claim("a", intern)
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)
	res, err = e.Reset("a", intern)
	require.NoError(t, err)
	require.True(t, res.OK)

	res, err = e.ActivatePolicy("v1", testActor, []string{"alice", "bob"}, "approved in review")
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)

	res, err = e.Claim("a", intern)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "denied by policy")

	st, err := e.State()
	require.NoError(t, err)
	require.NotNil(t, st.PolicyRegistry)
	assert.Equal(t, "v1", st.PolicyRegistry.ActiveVersion)
}

func TestActivePolicyBeatsInlineDocument(t *testing.T) {
	defs := &definition.Document{Packets: []definition.PacketDef{{ID: "a"}}}
	inline := denyInternsDoc("inline")
	defs.Policy = &inline
	e := newTestEngine(t, defs)
	mustInit(t, e)

	// Registry version allows everyone; it must supersede the inline deny.
	open := state.PolicyDocument{
		Version: "v2",
		Rules: []state.PolicyRule{
			{
				Kind:   state.RuleKindRole,
				Domain: state.DomainGovernance,
				Effect: state.EffectAllow,
				Roles:  []string{"intern"},
			},
		},
	}
	res, err := e.RegisterPolicy(open, testActor, "open up")
	require.NoError(t, err)
	require.True(t, res.OK)
	res, err = e.ActivatePolicy("v2", testActor, nil, "loosen")
	require.NoError(t, err)
	require.True(t, res.OK)

	intern := state.ActorContext{UserID: "zed", Role: "intern", Source: "cli"}
	res, err = e.Claim("a", intern)
	require.NoError(t, err)
	assert.True(t, res.OK, res.Message)
}

func TestRegisterPolicyRejectsMalformedDocument(t *testing.T) {
	defs := &definition.Document{Packets: []definition.PacketDef{{ID: "a"}}}
	e := newTestEngine(t, defs)
	mustInit(t, e)

	bad := state.PolicyDocument{
		Version: "v1",
		Rules: []state.PolicyRule{
			{Kind: "quantum", Domain: state.DomainGovernance, Effect: state.EffectDeny},
		},
	}
	res, err := e.RegisterPolicy(bad, testActor, "oops")
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestActivatePolicyUnknownVersion(t *testing.T) {
	defs := &definition.Document{Packets: []definition.PacketDef{{ID: "a"}}}
	e := newTestEngine(t, defs)
	mustInit(t, e)

	res, err := e.ActivatePolicy("nope", testActor, nil, "")
	require.NoError(t, err)
	assert.False(t, res.OK)
}
