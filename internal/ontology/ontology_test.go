package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultsToPacket(t *testing.T) {
	declared := map[string]EntityType{"a": EntityMilestone, "b": ""}
	assert.Equal(t, EntityMilestone, Resolve("a", declared))
	assert.Equal(t, DefaultEntityType, Resolve("b", declared))
	assert.Equal(t, DefaultEntityType, Resolve("missing", declared))
}

func TestValidatePacketDependsOnPacket(t *testing.T) {
	deps := map[string][]string{"b": {"a"}}
	err := ValidateDependencyOntology("b", nil, deps)
	require.NoError(t, err)
}

func TestValidateRejectsRiskAsBlockingDependency(t *testing.T) {
	declared := map[string]EntityType{"risk-1": EntityRisk}
	deps := map[string][]string{"b": {"risk-1"}}

	err := ValidateDependencyOntology("b", declared, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk-1")
	assert.Contains(t, err.Error(), "not allowed")
}

func TestValidateRejectsRiskAsSource(t *testing.T) {
	declared := map[string]EntityType{"risk-1": EntityRisk}
	deps := map[string][]string{"risk-1": {"a"}}

	err := ValidateDependencyOntology("risk-1", declared, deps)
	require.Error(t, err)
}

func TestValidateRejectsUnknownEntityType(t *testing.T) {
	declared := map[string]EntityType{"b": "Widget"}
	deps := map[string][]string{"b": {"a"}}

	err := ValidateDependencyOntology("b", declared, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Widget")
}

func TestValidateMilestoneEdges(t *testing.T) {
	declared := map[string]EntityType{
		"m1": EntityMilestone,
		"m2": EntityMilestone,
		"d1": EntityDecision,
		"a1": EntityArtifact,
	}
	deps := map[string][]string{"m1": {"m2", "d1"}}
	require.NoError(t, ValidateDependencyOntology("m1", declared, deps))

	// Milestone -> Artifact is not in the table.
	deps = map[string][]string{"m1": {"a1"}}
	require.Error(t, ValidateDependencyOntology("m1", declared, deps))
}

func TestValidateNoDependencies(t *testing.T) {
	require.NoError(t, ValidateDependencyOntology("solo", nil, map[string][]string{}))
}
