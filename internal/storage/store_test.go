package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substratehq/substrate/internal/state"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "state.json"), opts...)
}

func TestReadSynthesizesSkeleton(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Read()
	require.NoError(t, err)

	assert.Equal(t, state.CurrentVersion, st.Version)
	assert.Empty(t, st.Packets)
	assert.Empty(t, st.Log)
	assert.Equal(t, state.IntegrityPlain, st.LogIntegrityMode)

	// Reading must not create the file.
	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Read()
	require.NoError(t, err)
	st.Packets["pkt-1"] = &state.PacketRuntimeState{Status: state.StatusInProgress, AssignedTo: "agent-1"}
	st.Log = append(st.Log, state.LogEntry{PacketID: "pkt-1", Event: "started", Actor: "agent-1", Timestamp: "t1"})
	require.NoError(t, s.Write(st))

	got, err := s.Read()
	require.NoError(t, err)
	require.Contains(t, got.Packets, "pkt-1")
	assert.Equal(t, "agent-1", got.Packets["pkt-1"].AssignedTo)
	require.Len(t, got.Log, 1)
}

func TestReadCorruptDocumentFailsFast(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	_, err := s.Read()
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, s.Path(), perr.Path)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Read()
	require.NoError(t, err)
	require.NoError(t, s.Write(st))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestUpdateRejectedTransitionDoesNotWrite(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Read()
	require.NoError(t, err)
	require.NoError(t, s.Write(st))
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	sentinel := assert.AnError
	err = s.Update(func(st *state.GovernanceState) error {
		st.Packets["ghost"] = &state.PacketRuntimeState{Status: state.StatusDone}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected update must not touch the file")
}

func TestUpdateSerializesConcurrentWriters(t *testing.T) {
	s := newTestStore(t, WithLockTimeout(10*time.Second))

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(func(st *state.GovernanceState) error {
				st.Log = append(st.Log, state.LogEntry{PacketID: "pkt", Event: "noted", Actor: "a", Timestamp: "t"})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st, err := s.Read()
	require.NoError(t, err)
	assert.Len(t, st.Log, writers, "every append must survive - no lost updates")
}

func TestLockTimeoutSurfacesDistinctError(t *testing.T) {
	s := newTestStore(t,
		WithLockTimeout(100*time.Millisecond),
		WithStaleAfter(time.Hour),
		WithPollInterval(10*time.Millisecond),
	)

	// Simulate a live foreign holder.
	info, err := json.Marshal(map[string]any{
		"owner":       "other-process",
		"pid":         12345,
		"acquired_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path()+".lock", info, 0o644))

	err = s.Update(func(*state.GovernanceState) error { return nil })
	require.Error(t, err)

	var lerr *LockTimeoutError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "other-process", lerr.Owner)
}

func TestStaleLockIsReclaimed(t *testing.T) {
	s := newTestStore(t,
		WithLockTimeout(2*time.Second),
		WithStaleAfter(50*time.Millisecond),
		WithPollInterval(10*time.Millisecond),
	)

	stale, err := json.Marshal(map[string]any{
		"owner":       "crashed-process",
		"pid":         999,
		"acquired_at": time.Now().Add(-time.Minute).UTC().Format(time.RFC3339Nano),
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path()+".lock", stale, 0o644))

	err = s.Update(func(st *state.GovernanceState) error {
		st.AreaCloseouts["area-1"] = "closed"
		return nil
	})
	require.NoError(t, err, "stale lock must be reclaimed, not waited out")

	st, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "closed", st.AreaCloseouts["area-1"])
}
