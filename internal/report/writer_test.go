package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/lorescan/internal/model"
)

func sampleExtraction() model.PipelineResult {
	cost := 0.0042
	return model.PipelineResult{
		Entities: []model.ClassifiedEntity{
			{
				Name:           "Aria Stormwind",
				Classification: model.Classified{Type: model.EntityTypeCharacter, Confidence: 62, Source: model.SourceContext},
				Frequency:      14,
				ChapterSpread:  5,
				Contexts:       []string{"Aria Stormwind said nothing."},
			},
			{
				Name:           "Ravenport",
				Classification: model.Classified{Type: model.EntityTypeLocation, Confidence: 90, Source: model.SourceGazetteer},
				Frequency:      7,
			},
		},
		NeedsReview: []model.ClassifiedEntity{
			{
				Name:           "Ashfall",
				Classification: model.Classified{Type: model.EntityTypeCharacter, Confidence: 35, Source: model.SourceShape},
				Frequency:      6,
			},
		},
		Filtered: []model.ClassifiedEntity{
			{Name: "The", Classification: model.Filtered{Reason: model.FilterNoiseWord}},
		},
		Stats: model.PipelineStats{
			TotalCandidates: 4,
			AutoClassified:  2,
			NeedsReview:     1,
			FilteredNoise:   1,
			LLMEnhanced:     1,
			LLMCostUSD:      &cost,
		},
	}
}

func sampleDetection() model.DetectionResult {
	return model.DetectionResult{
		RunID:          "run-42",
		TotalMatches:   2,
		NewAppearances: 1,
		Matches: []model.MatchDetail{
			{EntityID: 1, EntityName: "Aria Stormwind", ChapterID: 3, Variant: "Aria", Offset: 17},
			{EntityID: 2, EntityName: "Stormhold Castle", ChapterID: 3, Variant: "Stormhold Castle", Offset: 44},
		},
		CrossBook: []model.CrossBookMatch{
			{
				EntityID:      1,
				EntityName:    "Aria Stormwind",
				ExistingBooks: []model.BookRef{{ManuscriptID: 1, Title: "Book One"}},
				NewBook:       model.BookRef{ManuscriptID: 2, Title: "Book Two"},
			},
		},
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("extraction summary and sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))
		n, err := w.WriteExtraction(sampleExtraction())
		if err != nil {
			t.Fatalf("WriteExtraction() error = %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		out := buf.String()
		for _, want := range []string{
			"ENTITY EXTRACTION",
			"Candidates:      4",
			"LLM cost:        $0.0042",
			"Aria Stormwind",
			"NEEDS REVIEW (1)",
			"FILTERED (1)",
			"noise_word",
			"...Aria Stormwind said nothing....",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("non-verbose output hides detail sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteExtraction(sampleExtraction()); err != nil {
			t.Fatalf("WriteExtraction() error = %v", err)
		}
		if strings.Contains(buf.String(), "FILTERED") {
			t.Error("filtered section should require verbose mode")
		}
	})

	t.Run("detection with cross-book lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))
		if _, err := w.WriteDetection(sampleDetection()); err != nil {
			t.Fatalf("WriteDetection() error = %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"Total matches:   2",
			"New appearances: 1",
			"Aria Stormwind: already in Book One, now in Book Two",
			`(as "Aria")`,
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("empty presence", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WritePresence(nil); err != nil {
			t.Fatalf("WritePresence() error = %v", err)
		}
		if !strings.Contains(buf.String(), "No entities with recorded appearances.") {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("extraction round-trips", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent("", "  ")).WriteExtraction(sampleExtraction()); err != nil {
			t.Fatalf("WriteExtraction() error = %v", err)
		}

		var decoded model.PipelineResult
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Stats.TotalCandidates != 4 {
			t.Errorf("TotalCandidates = %d, want 4", decoded.Stats.TotalCandidates)
		}
		if len(decoded.Entities) != 2 || decoded.Entities[0].Type() != model.EntityTypeCharacter {
			t.Errorf("decoded entities = %+v", decoded.Entities)
		}
	})

	t.Run("nil presence encodes as empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WritePresence(nil); err != nil {
			t.Fatalf("WritePresence() error = %v", err)
		}
		if got := strings.TrimSpace(buf.String()); got != "[]" {
			t.Errorf("output = %q, want []", got)
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("extraction renders tables and chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteExtraction(sampleExtraction()); err != nil {
			t.Fatalf("WriteExtraction() error = %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"# Entity Extraction Report",
			"## Entities",
			"## Needs Review",
			"## Filtered",
			"```mermaid",
			"Character",
			"Location",
			"Aria Stormwind",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("markdown missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("detection renders cross-book bullets", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteDetection(sampleDetection()); err != nil {
			t.Fatalf("WriteDetection() error = %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"# Entity Detection Report",
			"## Matches",
			"## Cross-Book Matches",
			"**Aria Stormwind** appears in Book One and now in *Book Two*",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("markdown missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("presence table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		records := []model.CrossBookRecord{
			{EntityID: 1, EntityName: "Aria Stormwind", Books: []model.BookRef{
				{ManuscriptID: 1, Title: "Book One"},
				{ManuscriptID: 2, Title: "Book Two"},
			}},
		}
		if _, err := NewMarkdownWriter(&buf).WritePresence(records); err != nil {
			t.Fatalf("WritePresence() error = %v", err)
		}
		if !strings.Contains(buf.String(), "Book One, Book Two") {
			t.Errorf("markdown missing manuscript list:\n%s", buf.String())
		}
	})
}

// failWriter always fails, for MultiWriter error propagation.
type failWriter struct{}

func (failWriter) WriteExtraction(model.PipelineResult) (int, error) {
	return 0, errors.New("write failed")
}
func (failWriter) WriteDetection(model.DetectionResult) (int, error) {
	return 0, errors.New("write failed")
}
func (failWriter) WritePresence([]model.CrossBookRecord) (int, error) {
	return 0, errors.New("write failed")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all destinations", func(t *testing.T) {
		t.Parallel()

		var text, jsonBuf bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&jsonBuf))
		if _, err := mw.WriteDetection(sampleDetection()); err != nil {
			t.Fatalf("WriteDetection() error = %v", err)
		}
		if text.Len() == 0 || jsonBuf.Len() == 0 {
			t.Error("expected output in both destinations")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(failWriter{}, NewSimpleWriter(&buf))
		if _, err := mw.WriteExtraction(sampleExtraction()); err == nil {
			t.Fatal("expected error from failing writer")
		}
		if buf.Len() != 0 {
			t.Error("second writer should not have been reached")
		}
	})
}
