package classify

import (
	"testing"

	"github.com/nao1215/lorescan/internal/gazetteer"
	"github.com/nao1215/lorescan/internal/model"
)

// testGazetteer builds a gazetteer with a known extension entry for the
// exact-hit tests.
func testGazetteer() *gazetteer.Gazetteer {
	return gazetteer.New(&gazetteer.Extension{
		Names: map[string]gazetteer.Entry{
			"Stormhold Castle": {Type: model.EntityTypeLocation, Confidence: 92},
		},
	})
}

// TestClassifyPreFilters tests that noise names are rejected before any
// other layer and carry the right reason tag.
func TestClassifyPreFilters(t *testing.T) {
	t.Parallel()

	g := testGazetteer()

	tests := []struct {
		name   string
		reason model.FilterReason
	}{
		{"The", model.FilterNoiseWord},
		{"However", model.FilterNoiseWord},
		{"221 Baker Street", model.FilterStreetAddress},
		{"Elm Avenue", model.FilterStreetAddress},
		{"TODO", model.FilterCapsNoise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(model.RawCandidate{Name: tt.name}, g)
			if !got.IsFiltered() {
				t.Fatalf("Classify(%q) not filtered", tt.name)
			}
			if got.FilterReasonTag() != tt.reason {
				t.Errorf("reason = %q, want %q", got.FilterReasonTag(), tt.reason)
			}
			if got.Confidence() != 0 {
				t.Errorf("filtered confidence = %d, want 0", got.Confidence())
			}
		})
	}
}

// TestClassifyGazetteerHit tests that an exact curated entry is adopted
// verbatim and pre-empts every later layer.
func TestClassifyGazetteerHit(t *testing.T) {
	t.Parallel()

	g := testGazetteer()

	// "Stormhold Castle" is 2 capitalized tokens; without the gazetteer
	// entry the shape layer would call it a character. The hit must win.
	got := Classify(model.RawCandidate{Name: "Stormhold Castle"}, g)

	if got.Source() != model.SourceGazetteer {
		t.Errorf("Source() = %q, want gazetteer", got.Source())
	}
	if got.Type() != model.EntityTypeLocation {
		t.Errorf("Type() = %q, want location", got.Type())
	}
	if got.Confidence() != 92 {
		t.Errorf("Confidence() = %d, want configured 92 exactly", got.Confidence())
	}
}

// TestClassifyContextSignals tests the context scoring layer's signal
// families, weights, and tie-breaking.
func TestClassifyContextSignals(t *testing.T) {
	t.Parallel()

	g := testGazetteer()

	tests := []struct {
		name           string
		candidate      model.RawCandidate
		wantType       model.EntityType
		wantConfidence int
	}{
		{
			// Verb after name: +3, multi-token bias: +8 => 11 => 40+22=62.
			name: "dialogue verb after multi-token name",
			candidate: model.RawCandidate{
				Name:     "Aria Stormwind",
				Contexts: []string{"Aria Stormwind said nothing for a long moment."},
			},
			wantType:       model.EntityTypeCharacter,
			wantConfidence: 62,
		},
		{
			// Title before single-token name: +5 => 40+10=50.
			name: "title before name",
			candidate: model.RawCandidate{
				Name:     "Veyra",
				Contexts: []string{"They waited for Dr. Veyra to arrive."},
			},
			wantType:       model.EntityTypeCharacter,
			wantConfidence: 50,
		},
		{
			// Preposition before single-token name: +3 => 40+6=46.
			name: "location preposition",
			candidate: model.RawCandidate{
				Name:     "Ravenport",
				Contexts: []string{"She had grown up in Ravenport before the war."},
			},
			wantType:       model.EntityTypeLocation,
			wantConfidence: 46,
		},
		{
			// Preposition with article between still signals a place.
			name: "preposition through article",
			candidate: model.RawCandidate{
				Name:     "Mistwood",
				Contexts: []string{"They rode through the Mistwood at dawn."},
			},
			wantType:       model.EntityTypeLocation,
			wantConfidence: 46,
		},
		{
			// Org noun after single-token name: +4 => 40+8=48.
			name: "organizational noun after name",
			candidate: model.RawCandidate{
				Name:     "Veil",
				Contexts: []string{"Everyone feared the Veil Bureau and its ledgers."},
			},
			wantType:       model.EntityTypeOrganization,
			wantConfidence: 48,
		},
		{
			// Character verb (+3) vs location prep (+3): tie prefers
			// character.
			name: "tie prefers character over location",
			candidate: model.RawCandidate{
				Name:     "Kael",
				Contexts: []string{"She walked toward Kael nodded and turned away."},
			},
			wantType:       model.EntityTypeCharacter,
			wantConfidence: 46,
		},
		{
			// Many signals cap the formula at 85.
			name: "confidence capped at 85",
			candidate: model.RawCandidate{
				Name: "Lysandra Vale",
				Contexts: []string{
					"Lady Lysandra Vale said it was over.",
					"Captain Lysandra Vale whispered the order.",
					"Dame Lysandra Vale nodded once.",
				},
			},
			wantType:       model.EntityTypeCharacter,
			wantConfidence: 85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(tt.candidate, g)
			if got.IsFiltered() {
				t.Fatalf("Classify(%q) unexpectedly filtered", tt.candidate.Name)
			}
			if got.Source() != model.SourceContext {
				t.Errorf("Source() = %q, want context", got.Source())
			}
			if got.Type() != tt.wantType {
				t.Errorf("Type() = %q, want %q", got.Type(), tt.wantType)
			}
			if got.Confidence() != tt.wantConfidence {
				t.Errorf("Confidence() = %d, want %d", got.Confidence(), tt.wantConfidence)
			}
		})
	}
}

// TestClassifyShapeHeuristics tests the shape layer when no context
// signal fires.
func TestClassifyShapeHeuristics(t *testing.T) {
	t.Parallel()

	g := testGazetteer()

	t.Run("all-caps acronym is an organization", func(t *testing.T) {
		t.Parallel()

		// No gazetteer entry and no scoring signal in the context; only
		// the acronym shape rule applies.
		got := Classify(model.RawCandidate{
			Name:     "MSS",
			Contexts: []string{"The MSS tracks everything"},
		}, g)

		if got.Type() != model.EntityTypeOrganization {
			t.Errorf("Type() = %q, want organization", got.Type())
		}
		if got.Confidence() != 60 {
			t.Errorf("Confidence() = %d, want 60", got.Confidence())
		}
		if got.Source() != model.SourceShape {
			t.Errorf("Source() = %q, want shape", got.Source())
		}
	})

	t.Run("two capitalized tokens are a character", func(t *testing.T) {
		t.Parallel()

		got := Classify(model.RawCandidate{Name: "Joren Blackbriar"}, g)
		if got.Type() != model.EntityTypeCharacter || got.Confidence() != 50 || got.Source() != model.SourceShape {
			t.Errorf("got %q/%d/%q, want character/50/shape", got.Type(), got.Confidence(), got.Source())
		}
	})

	t.Run("recurring single token is a weak character", func(t *testing.T) {
		t.Parallel()

		got := Classify(model.RawCandidate{Name: "Ashfall", Frequency: 7, ChapterSpread: 4}, g)
		if got.Type() != model.EntityTypeCharacter || got.Confidence() != 35 || got.Source() != model.SourceShape {
			t.Errorf("got %q/%d/%q, want character/35/shape", got.Type(), got.Confidence(), got.Source())
		}
	})

	t.Run("rare single token falls to default", func(t *testing.T) {
		t.Parallel()

		got := Classify(model.RawCandidate{Name: "Ashfall", Frequency: 2, ChapterSpread: 1}, g)
		if got.Source() != model.SourceDefault {
			t.Errorf("Source() = %q, want default", got.Source())
		}
		if got.Type() != model.EntityTypeCharacter || got.Confidence() != 30 {
			t.Errorf("got %q/%d, want character/30", got.Type(), got.Confidence())
		}
	})
}

// TestClassifyConfidenceBounds tests that every classification stays in
// [0, 100] across a spread of inputs.
func TestClassifyConfidenceBounds(t *testing.T) {
	t.Parallel()

	g := testGazetteer()

	candidates := []model.RawCandidate{
		{Name: "The"},
		{Name: "MSS"},
		{Name: "Aria Stormwind", Contexts: []string{"Aria Stormwind said hello."}},
		{Name: "Stormhold Castle"},
		{Name: "x"},
		{Name: ""},
		{Name: "Lysandra Vale", Contexts: []string{
			"Lady Lysandra Vale said it.", "Dr. Lysandra Vale whispered it.",
			"Captain Lysandra Vale nodded.", "Sir Lysandra Vale laughed.",
		}},
	}

	for _, c := range candidates {
		got := Classify(c, g)
		if conf := got.Confidence(); conf < 0 || conf > 100 {
			t.Errorf("Classify(%q) confidence %d out of [0,100]", c.Name, conf)
		}
	}
}
