package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

// TestEntityAliases tests alias parsing from entity metadata.
func TestEntityAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		metadata map[string]string
		want     []string
	}{
		{
			name:     "no metadata",
			metadata: nil,
			want:     nil,
		},
		{
			name:     "empty aliases value",
			metadata: map[string]string{"aliases": "   "},
			want:     nil,
		},
		{
			name:     "single alias",
			metadata: map[string]string{"aliases": "Storm"},
			want:     []string{"Storm"},
		},
		{
			name:     "multiple aliases with whitespace",
			metadata: map[string]string{"aliases": "Storm, The Grey Wanderer ,Mithrandir"},
			want:     []string{"Storm", "The Grey Wanderer", "Mithrandir"},
		},
		{
			name:     "empty segments dropped",
			metadata: map[string]string{"aliases": "Storm,,  ,Gale"},
			want:     []string{"Storm", "Gale"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := Entity{Name: "Aria Stormwind", Metadata: tt.metadata}
			got := e.Aliases()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Aliases() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestEntityNameVariants tests variant derivation for the matcher.
func TestEntityNameVariants(t *testing.T) {
	t.Parallel()

	t.Run("multi-token name adds first token", func(t *testing.T) {
		t.Parallel()

		e := Entity{Name: "Aria Stormwind"}
		got := e.NameVariants()
		want := []string{"Aria Stormwind", "Aria"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("NameVariants() = %v, want %v", got, want)
		}
	})

	t.Run("single token name has no first-name variant", func(t *testing.T) {
		t.Parallel()

		e := Entity{Name: "Stormhold"}
		got := e.NameVariants()
		want := []string{"Stormhold"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("NameVariants() = %v, want %v", got, want)
		}
	})

	t.Run("aliases come before first-name variant", func(t *testing.T) {
		t.Parallel()

		e := Entity{
			Name:     "Aria Stormwind",
			Metadata: map[string]string{"aliases": "Storm"},
		}
		got := e.NameVariants()
		want := []string{"Aria Stormwind", "Storm", "Aria"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("NameVariants() = %v, want %v", got, want)
		}
	})

	t.Run("case-insensitive duplicates removed", func(t *testing.T) {
		t.Parallel()

		e := Entity{
			Name:     "Aria Stormwind",
			Metadata: map[string]string{"aliases": "aria, ARIA STORMWIND"},
		}
		got := e.NameVariants()
		want := []string{"Aria Stormwind", "aria"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("NameVariants() = %v, want %v", got, want)
		}
	})
}

// TestParseEntityType tests string-to-type conversion.
func TestParseEntityType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want EntityType
	}{
		{"character", EntityTypeCharacter},
		{"person", EntityTypeCharacter},
		{"location", EntityTypeLocation},
		{"place", EntityTypeLocation},
		{"organization", EntityTypeOrganization},
		{"artifact", EntityTypeArtifact},
		{"concept", EntityTypeConcept},
		{"event", EntityTypeEvent},
		{"nonsense", EntityTypeCharacter},
		{"", EntityTypeCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := ParseEntityType(tt.in); got != tt.want {
				t.Errorf("ParseEntityType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestConfidenceLevelNumeric tests the scanner confidence mapping.
func TestConfidenceLevelNumeric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level ConfidenceLevel
		want  int
	}{
		{ConfidenceHigh, 80},
		{ConfidenceMedium, 50},
		{ConfidenceLow, 30},
		{ConfidenceLevel("bogus"), 30},
	}

	for _, tt := range tests {
		if got := tt.level.Numeric(); got != tt.want {
			t.Errorf("Numeric(%q) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

// TestClassifiedEntityJSON tests that the tagged variant flattens and
// restores correctly.
func TestClassifiedEntityJSON(t *testing.T) {
	t.Parallel()

	t.Run("classified entity", func(t *testing.T) {
		t.Parallel()

		e := ClassifiedEntity{
			Name:           "Aria Stormwind",
			Classification: Classified{Type: EntityTypeCharacter, Confidence: 85, Source: SourceGazetteer},
			Frequency:      12,
		}
		data, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}

		var got ClassifiedEntity
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if got.IsFiltered() {
			t.Error("expected not filtered")
		}
		if got.Type() != EntityTypeCharacter || got.Confidence() != 85 || got.Source() != SourceGazetteer {
			t.Errorf("round trip lost classification: %+v", got.Classification)
		}
	})

	t.Run("filtered entity", func(t *testing.T) {
		t.Parallel()

		e := ClassifiedEntity{
			Name:           "The",
			Classification: Filtered{Reason: FilterNoiseWord},
		}
		data, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}

		var got ClassifiedEntity
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if !got.IsFiltered() {
			t.Error("expected filtered")
		}
		if got.FilterReasonTag() != FilterNoiseWord {
			t.Errorf("FilterReasonTag() = %q, want %q", got.FilterReasonTag(), FilterNoiseWord)
		}
		if got.Confidence() != 0 {
			t.Errorf("Confidence() = %d, want 0", got.Confidence())
		}
	})
}

// TestDetectionResultMerge tests result accumulation across manuscripts.
func TestDetectionResultMerge(t *testing.T) {
	t.Parallel()

	r := DetectionResult{RunID: "run-1", TotalMatches: 2, NewAppearances: 1,
		Matches: []MatchDetail{{EntityName: "Aria"}}}
	r.Merge(DetectionResult{RunID: "run-2", TotalMatches: 3, NewAppearances: 3,
		Matches: []MatchDetail{{EntityName: "Kael"}},
		CrossBook: []CrossBookMatch{{EntityName: "Aria"}}})

	if r.RunID != "run-1" {
		t.Errorf("RunID = %q, want receiver's run-1", r.RunID)
	}
	if r.TotalMatches != 5 {
		t.Errorf("TotalMatches = %d, want 5", r.TotalMatches)
	}
	if r.NewAppearances != 4 {
		t.Errorf("NewAppearances = %d, want 4", r.NewAppearances)
	}
	if len(r.Matches) != 2 || len(r.CrossBook) != 1 {
		t.Errorf("Matches/CrossBook lengths = %d/%d, want 2/1", len(r.Matches), len(r.CrossBook))
	}
}
