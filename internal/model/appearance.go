package model

import "time"

// Appearance records one occurrence of an entity within a specific
// chapter. The store enforces at most one Appearance per (entity,
// chapter) pair; re-running detection never duplicates rows.
//
// Appearances are created only by the matching engine and never mutated.
// They are removed only by cascade when the owning entity, chapter, or
// manuscript is deleted.
type Appearance struct {
	ID           int64     `json:"id"`
	EntityID     int64     `json:"entity_id"`
	ManuscriptID int64     `json:"manuscript_id"`
	ChapterID    int64     `json:"chapter_id"`

	// Start and End delimit the first matched occurrence in the chapter
	// body, as byte offsets. Both are zero when no offset was recorded.
	Start int `json:"start,omitempty"`
	End   int `json:"end,omitempty"`

	// Note is optional free text attached at creation time.
	Note string `json:"note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// BookRef identifies a manuscript by id and title in presence results.
type BookRef struct {
	ManuscriptID int64  `json:"manuscript_id"`
	Title        string `json:"title"`
}

// CrossBookRecord is the full cross-book presence of one entity: the
// ordered, deduplicated set of manuscripts in which it has at least one
// Appearance.
type CrossBookRecord struct {
	EntityID   int64     `json:"entity_id"`
	EntityName string    `json:"entity_name"`
	Books      []BookRef `json:"books"`
}
