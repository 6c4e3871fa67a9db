package gazetteer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/lorescan/internal/model"
)

// TestLookup tests curated-name lookup, including case insensitivity.
func TestLookup(t *testing.T) {
	t.Parallel()

	g := New(nil)

	t.Run("exact hit", func(t *testing.T) {
		t.Parallel()

		entry, ok := g.Lookup("FBI")
		if !ok {
			t.Fatal("expected FBI in gazetteer")
		}
		if entry.Type != model.EntityTypeOrganization {
			t.Errorf("Type = %v, want organization", entry.Type)
		}
		if entry.Confidence != 95 {
			t.Errorf("Confidence = %d, want 95", entry.Confidence)
		}
	})

	t.Run("case-insensitive", func(t *testing.T) {
		t.Parallel()

		if _, ok := g.Lookup("london"); !ok {
			t.Error("expected lowercase lookup to hit")
		}
		if _, ok := g.Lookup("London"); !ok {
			t.Error("expected titlecase lookup to hit")
		}
	})

	t.Run("miss", func(t *testing.T) {
		t.Parallel()

		if _, ok := g.Lookup("Aria Stormwind"); ok {
			t.Error("did not expect uncurated name in gazetteer")
		}
	})
}

// TestDetectors tests the noise, address, and acronym detectors.
func TestDetectors(t *testing.T) {
	t.Parallel()

	g := New(nil)

	tests := []struct {
		name string
		fn   func(string) bool
		in   string
		want bool
	}{
		{"noise word The", g.IsNoiseWord, "The", true},
		{"noise word However", g.IsNoiseWord, "However", true},
		{"real name not noise", g.IsNoiseWord, "Aria", false},
		{"numbered street address", g.IsStreetAddress, "221 Baker Street", true},
		{"suffix street address", g.IsStreetAddress, "Elm Avenue", true},
		{"place is not an address", g.IsStreetAddress, "Stormhold Castle", false},
		{"single token is not an address", g.IsStreetAddress, "Street", false},
		{"caps noise TODO", g.IsCapsNoise, "TODO", true},
		{"unlisted acronym not caps noise", g.IsCapsNoise, "MSS", false},
		{"lowercase not caps noise", g.IsCapsNoise, "todo", false},
		{"seven letters too long for acronym", g.IsAcronymShape, "ABCDEFG", false},
		{"acronym shape", g.IsAcronymShape, "MSS", true},
		{"character verb", g.IsCharacterVerb, "whispered", true},
		{"title word with period", g.IsTitleWord, "Dr.", true},
		{"location preposition", g.IsLocationPrep, "toward", true},
		{"org noun", g.IsOrgNoun, "bureau", true},
		{"plain noun not org", g.IsOrgNoun, "forest", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("detector(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestExtensionMerge tests that extension data merges into the built-in
// tables and normalizes unknown types.
func TestExtensionMerge(t *testing.T) {
	t.Parallel()

	g := New(&Extension{
		Names: map[string]Entry{
			"Aria Stormwind": {Type: "character", Confidence: 95},
			"Stormhold":      {Type: "fortress", Confidence: 150},
		},
		NoiseWords: []string{"Verily"},
		CapsNoise:  []string{"XYZ"},
	})

	entry, ok := g.Lookup("aria stormwind")
	if !ok {
		t.Fatal("expected extension name in gazetteer")
	}
	if entry.Type != model.EntityTypeCharacter || entry.Confidence != 95 {
		t.Errorf("entry = %+v, want character/95", entry)
	}

	entry, _ = g.Lookup("Stormhold")
	if entry.Type != model.EntityTypeCharacter {
		t.Errorf("unknown type should normalize to character, got %v", entry.Type)
	}
	if entry.Confidence != 100 {
		t.Errorf("confidence should clamp to 100, got %d", entry.Confidence)
	}

	if !g.IsNoiseWord("verily") {
		t.Error("expected extension noise word")
	}
	if !g.IsCapsNoise("XYZ") {
		t.Error("expected extension caps noise")
	}
}

// TestLoad tests loading an extension file from disk.
func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses built-ins", func(t *testing.T) {
		t.Parallel()

		g, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if _, ok := g.Lookup("FBI"); !ok {
			t.Error("expected built-in entries")
		}
	})

	t.Run("valid extension file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "gazetteer.yaml")
		content := `names:
  Veil Bureau:
    type: organization
    confidence: 88
noise_words:
  - Forsooth
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		g, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		entry, ok := g.Lookup("Veil Bureau")
		if !ok {
			t.Fatal("expected file entry in gazetteer")
		}
		if entry.Type != model.EntityTypeOrganization || entry.Confidence != 88 {
			t.Errorf("entry = %+v, want organization/88", entry)
		}
		if !g.IsNoiseWord("Forsooth") {
			t.Error("expected file noise word")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte(":\n  - ["), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}
