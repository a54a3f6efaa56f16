package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substratehq/substrate/internal/state"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	sc, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return sc
}

func TestScenarioGoldenTraces(t *testing.T) {
	for _, name := range []string{"lifecycle", "fail_cascade", "handover"} {
		t.Run(name, func(t *testing.T) {
			sc := loadTestScenario(t, name)
			RunWithGolden(t, sc, filepath.Join(t.TempDir(), "state.json"))
		})
	}
}

func TestRunRecordsRejectionsAndContinues(t *testing.T) {
	sc := loadTestScenario(t, "lifecycle")
	result, err := Run(sc, filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	require.Len(t, result.Steps, 6)
	assert.False(t, result.Steps[2].OK, "premature claim should be rejected")
	assert.True(t, result.Steps[5].OK, "later steps still execute")
	assert.Equal(t, state.StatusDone, result.Statuses["a"])
	assert.Equal(t, state.StatusDone, result.Statuses["b"])
}

func TestRunUnknownOp(t *testing.T) {
	sc := loadTestScenario(t, "lifecycle")
	sc.Steps[0].Op = "teleport"

	_, err := Run(sc, filepath.Join(t.TempDir(), "state.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport")
}

func TestLoadScenarioRejectsInvalid(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "scenarios", "missing.yaml"))
	require.Error(t, err)
}

func TestRunHashChainScenario(t *testing.T) {
	sc := loadTestScenario(t, "lifecycle")
	sc.Integrity = "hash_chain"

	result, err := Run(sc, filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	// The projection hides hashes, so the trace matches plain mode.
	require.Len(t, result.Events, 5)
	assert.Equal(t, "initialized", result.Events[0].Event)
}
