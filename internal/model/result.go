package model

// PipelineStats summarizes one extraction pipeline run.
type PipelineStats struct {
	// TotalCandidates is the number of raw candidates seen.
	TotalCandidates int `json:"total_candidates"`

	// FilteredNoise is the number of candidates rejected by pre-filters
	// or flagged as noise by remote enhancement.
	FilteredNoise int `json:"filtered_noise"`

	// AutoClassified is the number of valid entities at or above the
	// confidence threshold.
	AutoClassified int `json:"auto_classified"`

	// NeedsReview is the number of valid entities below the confidence
	// threshold.
	NeedsReview int `json:"needs_review"`

	// LLMEnhanced is the number of entities whose classification was
	// overwritten by a remote verdict. Zero when enhancement was
	// disabled, skipped, or failed.
	LLMEnhanced int `json:"llm_enhanced"`

	// LLMCostUSD is the reported cost of the remote enhancement call.
	// Nil when no remote call completed.
	LLMCostUSD *float64 `json:"llm_cost_usd,omitempty"`
}

// PipelineResult is the plain data bundle returned by the extraction
// pipeline. The three partitions are disjoint: Entities holds valid
// classifications at or above the threshold, NeedsReview holds valid
// classifications below it, and Filtered holds noise.
type PipelineResult struct {
	Entities    []ClassifiedEntity `json:"entities"`
	NeedsReview []ClassifiedEntity `json:"needs_review"`
	Filtered    []ClassifiedEntity `json:"filtered"`
	Stats       PipelineStats      `json:"stats"`
}

// MatchDetail records one entity-in-chapter match found by the detection
// engine, reported regardless of whether a new Appearance row was
// persisted.
type MatchDetail struct {
	EntityID     int64  `json:"entity_id"`
	EntityName   string `json:"entity_name"`
	ManuscriptID int64  `json:"manuscript_id"`
	ChapterID    int64  `json:"chapter_id"`
	ChapterTitle string `json:"chapter_title,omitempty"`

	// Variant is the name form that matched (primary name, alias, or
	// bare first name).
	Variant string `json:"variant"`

	// Offset is the byte offset of the first match in the chapter body.
	Offset int `json:"offset"`
}

// CrossBookMatch reports an entity that gained a new Appearance in the
// detected manuscript while already appearing in at least one other
// manuscript before the run.
type CrossBookMatch struct {
	EntityID   int64  `json:"entity_id"`
	EntityName string `json:"entity_name"`

	// ExistingBooks are the manuscripts where the entity had Appearances
	// before this run. Always nonempty.
	ExistingBooks []BookRef `json:"existing_books"`

	// NewBook is the manuscript whose detection run created the new
	// Appearance.
	NewBook BookRef `json:"new_book"`
}

// DetectionResult is the plain data bundle returned by a detection run.
// Full-project detection sums the per-manuscript results.
type DetectionResult struct {
	// RunID uniquely identifies this detection run in logs and reports.
	RunID string `json:"run_id"`

	// TotalMatches counts matched entity-in-chapter pairs, including
	// those whose Appearance already existed.
	TotalMatches int `json:"total_matches"`

	// NewAppearances counts Appearance rows created by this run.
	NewAppearances int `json:"new_appearances"`

	Matches   []MatchDetail    `json:"matches,omitempty"`
	CrossBook []CrossBookMatch `json:"cross_book,omitempty"`
}

// Merge accumulates another result into this one. Used by full-project
// detection to sum per-manuscript runs; the receiver's RunID is kept.
func (r *DetectionResult) Merge(other DetectionResult) {
	r.TotalMatches += other.TotalMatches
	r.NewAppearances += other.NewAppearances
	r.Matches = append(r.Matches, other.Matches...)
	r.CrossBook = append(r.CrossBook, other.CrossBook...)
}
