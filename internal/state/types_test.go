package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFillsLegacyShapes(t *testing.T) {
	st := &GovernanceState{}
	st.Normalize()

	assert.Equal(t, CurrentVersion, st.Version)
	assert.NotNil(t, st.Packets)
	assert.NotNil(t, st.Log)
	assert.NotNil(t, st.AreaCloseouts)
	assert.Equal(t, IntegrityPlain, st.LogIntegrityMode)
}

func TestNormalizeRepairsPacketEntries(t *testing.T) {
	st := &GovernanceState{
		Packets: map[string]*PacketRuntimeState{
			"a": nil,
			"b": {},
		},
	}
	st.Normalize()

	require.NotNil(t, st.Packets["a"])
	assert.Equal(t, StatusPending, st.Packets["a"].Status)
	assert.Equal(t, StatusPending, st.Packets["b"].Status)
}

func TestActiveHandover(t *testing.T) {
	p := &PacketRuntimeState{Status: StatusInProgress}
	assert.Nil(t, p.ActiveHandover())

	p.Handovers = []Handover{
		{Active: false, FromAgent: "a"},
		{Active: true, FromAgent: "b"},
	}
	h := p.ActiveHandover()
	require.NotNil(t, h)
	assert.Equal(t, "b", h.FromAgent)

	// Deactivating through the returned pointer must stick.
	h.Active = false
	assert.Nil(t, p.ActiveHandover())
}

func TestCloneIsDeep(t *testing.T) {
	p := &PacketRuntimeState{
		Status:    StatusInProgress,
		Handovers: []Handover{{Active: true, FromAgent: "a"}},
	}
	cp := p.Clone()
	cp.Handovers[0].FromAgent = "changed"
	cp.Status = StatusDone

	assert.Equal(t, "a", p.Handovers[0].FromAgent)
	assert.Equal(t, StatusInProgress, p.Status)
}

func TestGovernanceStateRoundTrip(t *testing.T) {
	st := NewSkeleton("2026-01-01T00:00:00Z")
	st.Packets["pkt-1"] = &PacketRuntimeState{Status: StatusInProgress, AssignedTo: "agent-1"}
	st.Log = append(st.Log, LogEntry{PacketID: "pkt-1", Event: "started", Actor: "agent-1", Timestamp: "2026-01-01T00:00:01Z"})
	st.LogIntegrityMode = IntegrityHashChain

	data, err := json.Marshal(st)
	require.NoError(t, err)

	var got GovernanceState
	require.NoError(t, json.Unmarshal(data, &got))
	got.Normalize()

	assert.Equal(t, st.Packets["pkt-1"].AssignedTo, got.Packets["pkt-1"].AssignedTo)
	assert.Equal(t, IntegrityHashChain, got.LogIntegrityMode)
	require.Len(t, got.Log, 1)
	assert.Equal(t, "started", got.Log[0].Event)
}
