package model

import (
	"strings"
	"time"
)

// MetadataAliasKey is the metadata key holding the comma-separated alias
// list for an entity. All alias parsing goes through Entity.Aliases; call
// sites must not parse the raw value themselves.
const MetadataAliasKey = "aliases"

// Project is a fiction series: a collection of manuscripts sharing one
// entity registry.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Genre     string    `json:"genre,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Manuscript is one book within a project.
type Manuscript struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Chapter is one chapter body within a manuscript. Body holds the raw
// prose text the scanner and matcher operate on.
type Chapter struct {
	ID           int64     `json:"id"`
	ManuscriptID int64     `json:"manuscript_id"`
	Number       int       `json:"number"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// Entity is a durable named entity confirmed by the user or by accepting
// an extraction candidate. Name is not enforced unique, but matching
// assumes effective uniqueness within a project.
type Entity struct {
	ID        int64      `json:"id"`
	ProjectID int64      `json:"project_id"`
	Type      EntityType `json:"type"`
	Name      string     `json:"name"`

	// Metadata is free-form key/value data. The "aliases" key follows the
	// comma-separated convention and is read via Aliases.
	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Aliases parses the comma-separated alias list from the entity metadata.
// Empty segments are dropped and surrounding whitespace is trimmed.
// Returns nil if no aliases are configured.
func (e Entity) Aliases() []string {
	raw, ok := e.Metadata[MetadataAliasKey]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var aliases []string
	for _, part := range strings.Split(raw, ",") {
		alias := strings.TrimSpace(part)
		if alias == "" {
			continue
		}
		aliases = append(aliases, alias)
	}
	return aliases
}

// NameVariants returns every textual form the matcher should test for
// this entity: the primary name, each configured alias, and the first
// token alone for multi-token names (to catch bare first-name references
// like "Aria" for "Aria Stormwind"). The order is stable: primary name
// first, then aliases, then the first-name variant. Duplicates are
// removed case-insensitively.
func (e Entity) NameVariants() []string {
	variants := []string{e.Name}
	variants = append(variants, e.Aliases()...)

	if tokens := strings.Fields(e.Name); len(tokens) > 1 {
		variants = append(variants, tokens[0])
	}

	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, v := range variants {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
