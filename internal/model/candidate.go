package model

import "encoding/json"

// RawCandidate is an entity mention surfaced from chapter prose by the
// candidate scanner. It is immutable input to the classifier; the scanner's
// type guess is advisory and may be overridden downstream.
type RawCandidate struct {
	// Name is the candidate text exactly as it appears in prose.
	Name string `json:"name"`

	// TypeGuess is the scanner's initial type judgment.
	TypeGuess EntityType `json:"type_guess"`

	// GuessConfidence is the scanner's coarse confidence in TypeGuess.
	GuessConfidence ConfidenceLevel `json:"guess_confidence"`

	// Score is the scanner's occurrence score, combining frequency and
	// positional weight.
	Score float64 `json:"score"`

	// Frequency is the total number of occurrences across all chapters.
	Frequency int `json:"frequency"`

	// ChapterSpread is the number of distinct chapters containing the name.
	ChapterSpread int `json:"chapter_spread"`

	// TotalChapters is the number of chapters that were scanned.
	TotalChapters int `json:"total_chapters"`

	// Contexts holds short sample snippets surrounding occurrences,
	// in scan order. The classifier reads these for signal scoring.
	Contexts []string `json:"contexts,omitempty"`
}

// ConfidenceLevel is the scanner's coarse confidence in its type guess.
type ConfidenceLevel string

// Scanner confidence levels.
const (
	// ConfidenceHigh maps to numeric confidence 80.
	ConfidenceHigh ConfidenceLevel = "high"
	// ConfidenceMedium maps to numeric confidence 50.
	ConfidenceMedium ConfidenceLevel = "medium"
	// ConfidenceLow maps to numeric confidence 30.
	ConfidenceLow ConfidenceLevel = "low"
)

// Numeric converts the coarse level to the numeric confidence scale used
// by the classifier. Unrecognized levels map to low.
func (c ConfidenceLevel) Numeric() int {
	switch c {
	case ConfidenceHigh:
		return 80
	case ConfidenceMedium:
		return 50
	case ConfidenceLow:
		return 30
	default:
		return 30
	}
}

// Classification is the tagged variant produced by the classifier: a
// candidate is either Classified with a type and confidence, or Filtered
// with a reason. Representing this as a sealed interface makes the
// filtered/unfiltered distinction exhaustive at compile time instead of
// a struct with nullable fields.
type Classification interface {
	classification()
}

// Classified is a successful classification with a jointly assigned type
// and confidence. Confidence is always in [0, 100].
type Classified struct {
	Type       EntityType           `json:"type"`
	Confidence int                  `json:"confidence"`
	Source     ClassificationSource `json:"source"`
}

func (Classified) classification() {}

// Filtered marks a candidate rejected as noise before (or during) the
// classification chain. Filtered candidates never reach later layers.
type Filtered struct {
	Reason FilterReason `json:"reason"`
}

func (Filtered) classification() {}

// ClassifiedEntity is one raw candidate after classification. The embedded
// Classification carries either the typed result or the filter reason;
// frequency, contexts, and related names are carried through from the
// candidate unchanged.
type ClassifiedEntity struct {
	Name           string
	Classification Classification
	Frequency      int
	ChapterSpread  int
	Contexts       []string

	// RelatedNames holds hints at other candidate names that may refer
	// to the same entity (shared surname tokens).
	RelatedNames []string
}

// IsFiltered reports whether the entity was rejected as noise.
func (e ClassifiedEntity) IsFiltered() bool {
	_, ok := e.Classification.(Filtered)
	return ok
}

// Type returns the resolved entity type, or EntityTypeCharacter for
// filtered entities (the documented default).
func (e ClassifiedEntity) Type() EntityType {
	if c, ok := e.Classification.(Classified); ok {
		return c.Type
	}
	return EntityTypeCharacter
}

// Confidence returns the numeric confidence, or 0 for filtered entities.
func (e ClassifiedEntity) Confidence() int {
	if c, ok := e.Classification.(Classified); ok {
		return c.Confidence
	}
	return 0
}

// Source returns the classification source layer, or empty for filtered
// entities.
func (e ClassifiedEntity) Source() ClassificationSource {
	if c, ok := e.Classification.(Classified); ok {
		return c.Source
	}
	return ""
}

// FilterReasonTag returns the filter reason, or empty if not filtered.
func (e ClassifiedEntity) FilterReasonTag() FilterReason {
	if f, ok := e.Classification.(Filtered); ok {
		return f.Reason
	}
	return ""
}

// classifiedEntityJSON is the flat wire form of ClassifiedEntity.
// The sealed Classification interface does not marshal directly, so we
// flatten it for report output.
type classifiedEntityJSON struct {
	Name          string               `json:"name"`
	Filtered      bool                 `json:"filtered"`
	FilterReason  FilterReason         `json:"filter_reason,omitempty"`
	Type          EntityType           `json:"type,omitempty"`
	Confidence    int                  `json:"confidence"`
	Source        ClassificationSource `json:"source,omitempty"`
	Frequency     int                  `json:"frequency"`
	ChapterSpread int                  `json:"chapter_spread"`
	Contexts      []string             `json:"contexts,omitempty"`
	RelatedNames  []string             `json:"related_names,omitempty"`
}

// MarshalJSON flattens the tagged Classification variant into the wire form.
func (e ClassifiedEntity) MarshalJSON() ([]byte, error) {
	out := classifiedEntityJSON{
		Name:          e.Name,
		Frequency:     e.Frequency,
		ChapterSpread: e.ChapterSpread,
		Contexts:      e.Contexts,
		RelatedNames:  e.RelatedNames,
	}
	switch c := e.Classification.(type) {
	case Classified:
		out.Type = c.Type
		out.Confidence = c.Confidence
		out.Source = c.Source
	case Filtered:
		out.Filtered = true
		out.FilterReason = c.Reason
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the tagged Classification variant from the wire form.
func (e *ClassifiedEntity) UnmarshalJSON(data []byte) error {
	var in classifiedEntityJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	e.Name = in.Name
	e.Frequency = in.Frequency
	e.ChapterSpread = in.ChapterSpread
	e.Contexts = in.Contexts
	e.RelatedNames = in.RelatedNames
	if in.Filtered {
		e.Classification = Filtered{Reason: in.FilterReason}
	} else {
		e.Classification = Classified{Type: in.Type, Confidence: in.Confidence, Source: in.Source}
	}
	return nil
}
