package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDefsYAML = `packets:
  - id: a
    title: First packet
  - id: b
    title: Second packet
dependencies:
  b: [a]
`

// testEnv writes a definition file and returns paths plus a runner
// bound to them.
type testEnv struct {
	statePath string
	defsPath  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	defsPath := filepath.Join(dir, "packets.yaml")
	require.NoError(t, os.WriteFile(defsPath, []byte(testDefsYAML), 0o644))
	return &testEnv{
		statePath: filepath.Join(dir, "substrate.json"),
		defsPath:  defsPath,
	}
}

// run executes the CLI with a fresh command tree and returns stdout.
func (env *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	full := append([]string{"--state", env.statePath, "--defs", env.defsPath, "--actor", "alice", "--role", "engineer"}, args...)

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(full)
	err := cmd.Execute()
	return out.String(), err
}

func (env *testEnv) runJSON(t *testing.T, args ...string) (Response, error) {
	t.Helper()
	out, err := env.run(t, append([]string{"--format", "json"}, args...)...)
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp, err
}

func TestInitClaimDoneFlow(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "init", "--log-integrity", "hash_chain")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized 2 packet(s)")

	out, err = env.run(t, "claim", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "claimed by alice")

	out, err = env.run(t, "done", "a", "--notes", "shipped")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")

	out, err = env.run(t, "claim", "b")
	require.NoError(t, err)
	assert.Contains(t, out, "claimed by alice")
}

func TestClaimRejectionExitsOne(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "init")
	require.NoError(t, err)

	out, err := env.run(t, "claim", "b")
	require.Error(t, err)
	assert.Equal(t, ExitRejected, GetExitCode(err))
	assert.Contains(t, out, "Blocked by a")
}

func TestJSONOutputEnvelope(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.runJSON(t, "init")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	require.Nil(t, resp.Error)

	resp, err = env.runJSON(t, "claim", "b")
	require.Error(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRejected, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Blocked by a")
}

func TestInvalidFormatRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "--format", "xml", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMissingDefsIsCommandError(t *testing.T) {
	env := newTestEnv(t)
	env.defsPath = filepath.Join(t.TempDir(), "nope.yaml")

	_, err := env.run(t, "init")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStatusListsPackets(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "init")
	require.NoError(t, err)
	_, err = env.run(t, "claim", "a")
	require.NoError(t, err)

	out, err := env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "a")
	assert.Contains(t, out, "in_progress")
	assert.Contains(t, out, "@alice")
	assert.Contains(t, out, "2 packet(s)")
}

func TestValidateCleanDocument(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "init")
	require.NoError(t, err)

	out, err := env.run(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "structurally valid")
}

func TestGraphCriticalPath(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "graph", "critical-path")
	require.NoError(t, err)
	assert.Contains(t, out, "a -> b")
}

func TestGraphImpact(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "graph", "impact", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "b")

	_, err = env.run(t, "graph", "impact", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLogVerifyHashChain(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "init", "--log-integrity", "hash_chain")
	require.NoError(t, err)
	_, err = env.run(t, "claim", "a")
	require.NoError(t, err)

	out, err := env.run(t, "log", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "chain valid")
}

func TestLogVerifyDetectsTampering(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "init", "--log-integrity", "hash_chain")
	require.NoError(t, err)
	_, err = env.run(t, "claim", "a")
	require.NoError(t, err)

	// Tamper with the state file directly.
	data, err := os.ReadFile(env.statePath)
	require.NoError(t, err)
	tampered := bytes.Replace(data, []byte(`"actor": "alice"`), []byte(`"actor": "eve"`), 1)
	require.NotEqual(t, data, tampered, "expected the fixture to contain the actor field")
	require.NoError(t, os.WriteFile(env.statePath, tampered, 0o644))

	_, err = env.run(t, "log", "verify")
	require.Error(t, err)
	assert.Equal(t, ExitRejected, GetExitCode(err))
}

func TestExportToSQLite(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "init")
	require.NoError(t, err)
	_, err = env.run(t, "claim", "a")
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "log.db")
	out, err := env.run(t, "export", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 new entr(ies)")

	// Idempotent re-export.
	out, err = env.run(t, "export", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 0 new entr(ies)")
}

func TestPolicyRegisterAndActivate(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "init")
	require.NoError(t, err)

	policyPath := filepath.Join(t.TempDir(), "policy.yaml")
	policyYAML := `version: v1
rules:
  - kind: role
    domain: governance
    effect: deny
    roles: [intern]
    message: interns may not drive governance transitions
`
	require.NoError(t, os.WriteFile(policyPath, []byte(policyYAML), 0o644))

	out, err := env.run(t, "policy", "register", policyPath, "--rationale", "lock down")
	require.NoError(t, err)
	assert.Contains(t, out, "registered as draft")

	out, err = env.run(t, "policy", "activate", "v1", "--approve", "alice", "--approve", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "now active")

	out, err = env.run(t, "policy", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "* v1")

	// The activated policy now gates claims by role.
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--state", env.statePath, "--defs", env.defsPath, "--actor", "zed", "--role", "intern", "claim", "a"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitRejected, GetExitCode(err))
	assert.Contains(t, buf.String(), "denied by policy")
}
