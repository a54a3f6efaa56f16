// Package ontology type-checks dependency edges against a closed
// relationship table.
//
// Every packet declares an entity type (defaulting to Packet). An edge
// A depends_on B is only admissible when (type(A), depends_on, type(B))
// appears in the static allow-list below. This rejects structurally
// nonsensical graphs - a Risk register entry used as a blocking
// dependency, for example - independent of cycle checking.
//
// Pure guard: no state, safe for concurrent use.
package ontology

import (
	"fmt"
	"sort"
	"strings"
)

// EntityType classifies a packet definition.
type EntityType string

const (
	// DefaultEntityType applies when a definition omits entity_type.
	DefaultEntityType EntityType = "Packet"

	EntityPacket    EntityType = "Packet"
	EntityMilestone EntityType = "Milestone"
	EntityRisk      EntityType = "Risk"
	EntityDecision  EntityType = "Decision"
	EntityArtifact  EntityType = "Artifact"
)

// BuiltinEntityTypes is the closed set of admissible entity types.
var BuiltinEntityTypes = map[EntityType]bool{
	EntityPacket:    true,
	EntityMilestone: true,
	EntityRisk:      true,
	EntityDecision:  true,
	EntityArtifact:  true,
}

// relationship is one (source, relation, target) triple.
type relationship struct {
	Source   EntityType
	Relation string
	Target   EntityType
}

// RelationDependsOn is the only relation the core validates today.
const RelationDependsOn = "depends_on"

// allowedRelationships is the static relationship table. Risk entities
// are deliberately absent as either endpoint of depends_on: risks
// inform work, they never gate it.
var allowedRelationships = map[relationship]bool{
	{EntityPacket, RelationDependsOn, EntityPacket}:       true,
	{EntityPacket, RelationDependsOn, EntityMilestone}:    true,
	{EntityPacket, RelationDependsOn, EntityDecision}:     true,
	{EntityPacket, RelationDependsOn, EntityArtifact}:     true,
	{EntityMilestone, RelationDependsOn, EntityPacket}:    true,
	{EntityMilestone, RelationDependsOn, EntityMilestone}: true,
	{EntityMilestone, RelationDependsOn, EntityDecision}:  true,
	{EntityArtifact, RelationDependsOn, EntityPacket}:     true,
	{EntityArtifact, RelationDependsOn, EntityArtifact}:   true,
	{EntityDecision, RelationDependsOn, EntityDecision}:   true,
	{EntityDecision, RelationDependsOn, EntityArtifact}:   true,
}

// Resolve returns the declared entity type for id, defaulting to
// Packet when the declaration is absent or empty.
func Resolve(id string, declared map[string]EntityType) EntityType {
	if t, ok := declared[id]; ok && t != "" {
		return t
	}
	return DefaultEntityType
}

// ValidateDependencyOntology checks every dependency edge out of id
// against the relationship table. declared maps packet ids to their
// declared entity types; deps is the full dependency adjacency.
func ValidateDependencyOntology(id string, declared map[string]EntityType, deps map[string][]string) error {
	sourceType := Resolve(id, declared)
	if !BuiltinEntityTypes[sourceType] {
		return fmt.Errorf("packet %s has unknown entity type %q (expected one of %s)", id, sourceType, builtinList())
	}

	for _, dep := range deps[id] {
		targetType := Resolve(dep, declared)
		if !BuiltinEntityTypes[targetType] {
			return fmt.Errorf("dependency %s of packet %s has unknown entity type %q (expected one of %s)", dep, id, targetType, builtinList())
		}
		if !allowedRelationships[relationship{sourceType, RelationDependsOn, targetType}] {
			return fmt.Errorf("packet %s (%s) may not depend on %s (%s): relationship %s/%s/%s is not allowed",
				id, sourceType, dep, targetType, sourceType, RelationDependsOn, targetType)
		}
	}
	return nil
}

func builtinList() string {
	names := make([]string, 0, len(BuiltinEntityTypes))
	for t := range BuiltinEntityTypes {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
