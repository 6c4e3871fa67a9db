package model

// entityTypeUnknownStr is the string representation for unknown entity types.
const entityTypeUnknownStr = "unknown"

// EntityType represents the category of a named entity in a manuscript.
type EntityType string

// Entity type constants.
const (
	// EntityTypeCharacter represents a person appearing in the narrative.
	EntityTypeCharacter EntityType = "character"
	// EntityTypeLocation represents a place (city, building, region).
	EntityTypeLocation EntityType = "location"
	// EntityTypeOrganization represents a group, agency, or institution.
	EntityTypeOrganization EntityType = "organization"
	// EntityTypeArtifact represents a significant object or item.
	EntityTypeArtifact EntityType = "artifact"
	// EntityTypeConcept represents an abstract idea, system, or power.
	EntityTypeConcept EntityType = "concept"
	// EntityTypeEvent represents a named occurrence in the story world.
	EntityTypeEvent EntityType = "event"
)

// String returns the string representation of the EntityType.
func (t EntityType) String() string {
	if t == "" {
		return entityTypeUnknownStr
	}
	return string(t)
}

// IsValid returns true if this is a known entity type.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeCharacter, EntityTypeLocation, EntityTypeOrganization,
		EntityTypeArtifact, EntityTypeConcept, EntityTypeEvent:
		return true
	default:
		return false
	}
}

// ParseEntityType converts a string to an EntityType.
// Returns EntityTypeCharacter if the string is not recognized, because
// character is the recall-favoring default for proper nouns in prose.
func ParseEntityType(s string) EntityType {
	switch s {
	case "character", "person":
		return EntityTypeCharacter
	case "location", "place":
		return EntityTypeLocation
	case "organization", "org":
		return EntityTypeOrganization
	case "artifact", "object", "item":
		return EntityTypeArtifact
	case "concept":
		return EntityTypeConcept
	case "event":
		return EntityTypeEvent
	default:
		return EntityTypeCharacter
	}
}

// ClassificationSource indicates which decision layer produced a classification.
type ClassificationSource string

// Classification source constants, ordered by layer precedence.
const (
	// SourceGazetteer indicates an exact hit in the static gazetteer.
	SourceGazetteer ClassificationSource = "gazetteer"
	// SourceContext indicates context-signal scoring decided the type.
	SourceContext ClassificationSource = "context"
	// SourceShape indicates token-shape heuristics decided the type.
	SourceShape ClassificationSource = "shape"
	// SourceDefault indicates the fallback layer was reached.
	SourceDefault ClassificationSource = "default"
	// SourceLLMEnhanced indicates a remote enhancement verdict overrode
	// the local classification.
	SourceLLMEnhanced ClassificationSource = "llm_enhanced"
)

// FilterReason explains why a candidate was filtered out as noise.
type FilterReason string

// Filter reason constants.
const (
	// FilterNoiseWord indicates the name is a common word from the
	// gazetteer's noise list.
	FilterNoiseWord FilterReason = "noise_word"
	// FilterStreetAddress indicates the name has street-address shape.
	FilterStreetAddress FilterReason = "street_address"
	// FilterCapsNoise indicates a short all-caps token flagged as noise.
	FilterCapsNoise FilterReason = "caps_noise"
	// FilterLLMNoise indicates the remote enhancement call flagged the
	// name as noise.
	FilterLLMNoise FilterReason = "llm_noise"
)
