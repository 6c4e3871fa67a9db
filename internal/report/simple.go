package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/lorescan/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: plain text with ASCII formatting rather than ANSI
// colors, so the output pipes cleanly to files and other tools.
type SimpleWriter struct {
	baseWriter

	// verbose enables per-entity context snippets and per-match detail.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteExtraction outputs the extraction result as sectioned text.
func (w *SimpleWriter) WriteExtraction(result model.PipelineResult) (int, error) {
	var b strings.Builder

	writeRule(&b, "ENTITY EXTRACTION")
	fmt.Fprintf(&b, "Candidates:      %d\n", result.Stats.TotalCandidates)
	fmt.Fprintf(&b, "Auto-classified: %d\n", result.Stats.AutoClassified)
	fmt.Fprintf(&b, "Needs review:    %d\n", result.Stats.NeedsReview)
	fmt.Fprintf(&b, "Filtered noise:  %d\n", result.Stats.FilteredNoise)
	if result.Stats.LLMEnhanced > 0 {
		fmt.Fprintf(&b, "LLM enhanced:    %d\n", result.Stats.LLMEnhanced)
	}
	if result.Stats.LLMCostUSD != nil {
		fmt.Fprintf(&b, "LLM cost:        $%.4f\n", *result.Stats.LLMCostUSD)
	}

	w.writeEntitySection(&b, "ENTITIES", result.Entities)
	w.writeEntitySection(&b, "NEEDS REVIEW", result.NeedsReview)
	if w.verbose {
		w.writeFilteredSection(&b, result.Filtered)
	}

	return io.WriteString(w.output, b.String())
}

// WriteDetection outputs the detection result as sectioned text.
func (w *SimpleWriter) WriteDetection(result model.DetectionResult) (int, error) {
	var b strings.Builder

	writeRule(&b, "ENTITY DETECTION")
	fmt.Fprintf(&b, "Run:             %s\n", result.RunID)
	fmt.Fprintf(&b, "Total matches:   %d\n", result.TotalMatches)
	fmt.Fprintf(&b, "New appearances: %d\n", result.NewAppearances)

	if len(result.CrossBook) > 0 {
		b.WriteString("\nCross-book matches:\n")
		for _, cross := range result.CrossBook {
			titles := make([]string, 0, len(cross.ExistingBooks))
			for _, book := range cross.ExistingBooks {
				titles = append(titles, book.Title)
			}
			fmt.Fprintf(&b, "  %s: already in %s, now in %s\n",
				cross.EntityName, strings.Join(titles, ", "), cross.NewBook.Title)
		}
	}

	if w.verbose && len(result.Matches) > 0 {
		b.WriteString("\nMatches:\n")
		for _, match := range result.Matches {
			fmt.Fprintf(&b, "  %-24s chapter %d  offset %d  (as %q)\n",
				match.EntityName, match.ChapterID, match.Offset, match.Variant)
		}
	}

	return io.WriteString(w.output, b.String())
}

// WritePresence outputs one line per entity with its manuscripts.
func (w *SimpleWriter) WritePresence(records []model.CrossBookRecord) (int, error) {
	var b strings.Builder

	writeRule(&b, "CROSS-BOOK PRESENCE")
	if len(records) == 0 {
		b.WriteString("No entities with recorded appearances.\n")
		return io.WriteString(w.output, b.String())
	}
	for _, record := range records {
		titles := make([]string, 0, len(record.Books))
		for _, book := range record.Books {
			titles = append(titles, book.Title)
		}
		fmt.Fprintf(&b, "%-24s %s\n", record.EntityName, strings.Join(titles, ", "))
	}

	return io.WriteString(w.output, b.String())
}

func (w *SimpleWriter) writeEntitySection(b *strings.Builder, title string, entities []model.ClassifiedEntity) {
	if len(entities) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (%d)\n", title, len(entities))
	for _, entity := range entities {
		fmt.Fprintf(b, "  %-24s %-14s confidence %3d  via %s\n",
			entity.Name, entity.Type(), entity.Confidence(), entity.Source())
		if w.verbose {
			for _, snippet := range entity.Contexts {
				fmt.Fprintf(b, "      ...%s...\n", snippet)
			}
		}
	}
}

func (w *SimpleWriter) writeFilteredSection(b *strings.Builder, filtered []model.ClassifiedEntity) {
	if len(filtered) == 0 {
		return
	}
	fmt.Fprintf(b, "\nFILTERED (%d)\n", len(filtered))
	for _, entity := range filtered {
		fmt.Fprintf(b, "  %-24s %s\n", entity.Name, entity.FilterReasonTag())
	}
}

func writeRule(b *strings.Builder, title string) {
	b.WriteString(strings.Repeat("=", 50) + "\n")
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
}
