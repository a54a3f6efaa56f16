package definition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substratehq/substrate/internal/ontology"
)

func writeDef(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const yamlDef = `
packets:
  - id: pkt-core
    title: Build the core
  - id: pkt-api
    title: Expose the API
    entity_type: Milestone
dependencies:
  pkt-api: [pkt-core]
policy:
  version: v1
  rules:
    - kind: role
      domain: governance
      effect: deny
      roles: [intern]
`

func TestLoadYAML(t *testing.T) {
	doc, err := Load(writeDef(t, "defs.yaml", yamlDef))
	require.NoError(t, err)

	require.Len(t, doc.Packets, 2)
	assert.Equal(t, "pkt-core", doc.Packets[0].ID)
	assert.Equal(t, []string{"pkt-core"}, doc.Dependencies["pkt-api"])
	require.NotNil(t, doc.Policy)
	assert.Equal(t, "v1", doc.Policy.Version)

	types := doc.EntityTypes()
	assert.Equal(t, ontology.EntityType("Milestone"), types["pkt-api"])
	assert.NotContains(t, types, "pkt-core", "undeclared types are defaulted later, not here")
}

func TestLoadJSONThroughYAMLPath(t *testing.T) {
	doc, err := Load(writeDef(t, "defs.json", `{
		"packets": [{"id": "a", "title": "A"}, {"id": "b", "title": "B"}],
		"dependencies": {"b": ["a"]}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, doc.Dependencies["b"])
}

const cueDef = `
packets: [
	{id: "pkt-core", title: "Build the core"},
	{id: "pkt-api", title: "Expose the API", entity_type: "Milestone"},
]
dependencies: "pkt-api": ["pkt-core"]
policy: {
	version: "v1"
	rules: [{kind: "role", domain: "governance", effect: "deny", roles: ["intern"]}]
}
`

func TestLoadCUE(t *testing.T) {
	doc, err := Load(writeDef(t, "defs.cue", cueDef))
	require.NoError(t, err)

	require.Len(t, doc.Packets, 2)
	assert.Equal(t, []string{"pkt-core"}, doc.Dependencies["pkt-api"])
	require.NotNil(t, doc.Policy)
	assert.Equal(t, "v1", doc.Policy.Version)
}

func TestCUEAndYAMLAgree(t *testing.T) {
	fromYAML, err := Load(writeDef(t, "defs.yaml", yamlDef))
	require.NoError(t, err)
	fromCUE, err := Load(writeDef(t, "defs.cue", cueDef))
	require.NoError(t, err)

	assert.Equal(t, fromYAML.Packets, fromCUE.Packets)
	assert.Equal(t, fromYAML.Dependencies, fromCUE.Dependencies)
	assert.Equal(t, fromYAML.Policy.Version, fromCUE.Policy.Version)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "ghost.yaml"))
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrCodeNotFound, lerr.Code)
}

func TestLoadRejectsBrokenCUE(t *testing.T) {
	_, err := Load(writeDef(t, "defs.cue", `packets: [{id: }`))
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrCodeBuild, lerr.Code)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"no packets":         `dependencies: {}`,
		"duplicate id":       "packets: [{id: a, title: A}, {id: a, title: A2}]",
		"unknown dependency": "packets: [{id: a, title: A}]\ndependencies: {a: [ghost]}",
		"unknown dep owner":  "packets: [{id: a, title: A}]\ndependencies: {ghost: [a]}",
		"bad inline policy":  "packets: [{id: a, title: A}]\npolicy: {version: '', rules: []}",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeDef(t, "defs.yaml", content))
			var lerr *LoadError
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, ErrCodeValidation, lerr.Code)
		})
	}
}
