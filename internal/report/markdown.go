package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/lorescan/internal/model"
)

// MarkdownWriter outputs results in Markdown format for documentation
// and sharing.
//
// Design decision: the nao1215/markdown library gives type-safe tables,
// GitHub-flavored alerts, and mermaid chart embedding without manual
// string assembly.
type MarkdownWriter struct {
	baseWriter

	titler cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		titler:     cases.Title(language.English),
	}
}

// WriteExtraction outputs the extraction result in Markdown format.
func (w *MarkdownWriter) WriteExtraction(result model.PipelineResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Entity Extraction Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows:   w.statsRows(result.Stats),
	})
	md.PlainText("")

	if len(result.Entities) > 0 {
		w.writeTypeChart(md, result.Entities)
	}

	w.writeEntityTable(md, "Entities", result.Entities)
	w.writeEntityTable(md, "Needs Review", result.NeedsReview)
	w.writeFilteredTable(md, result.Filtered)

	if result.Stats.NeedsReview > 0 {
		md.Importantf("%d entities are below the confidence threshold and should be reviewed.",
			result.Stats.NeedsReview)
	} else {
		md.Tip("All extracted entities were classified with sufficient confidence.")
	}

	return len(md.String()), md.Build()
}

// WriteDetection outputs the detection result in Markdown format.
func (w *MarkdownWriter) WriteDetection(result model.DetectionResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Entity Detection Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Run", "`" + result.RunID + "`"},
			{"Total matches", strconv.Itoa(result.TotalMatches)},
			{"New appearances", strconv.Itoa(result.NewAppearances)},
			{"Cross-book entities", strconv.Itoa(len(result.CrossBook))},
		},
	})
	md.PlainText("")

	if len(result.Matches) > 0 {
		md.H2("Matches")
		rows := make([][]string, 0, len(result.Matches))
		for _, match := range result.Matches {
			rows = append(rows, []string{
				match.EntityName,
				strconv.FormatInt(match.ChapterID, 10),
				"`" + match.Variant + "`",
				strconv.Itoa(match.Offset),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Entity", "Chapter", "Matched As", "Offset"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(result.CrossBook) > 0 {
		md.H2("Cross-Book Matches")
		items := make([]string, 0, len(result.CrossBook))
		for _, cross := range result.CrossBook {
			titles := make([]string, 0, len(cross.ExistingBooks))
			for _, book := range cross.ExistingBooks {
				titles = append(titles, book.Title)
			}
			items = append(items, fmt.Sprintf("**%s** appears in %s and now in *%s*",
				cross.EntityName, strings.Join(titles, ", "), cross.NewBook.Title))
		}
		md.BulletList(items...)
		md.PlainText("")
		md.Note("Cross-book entities gained their first appearance in this manuscript during this run.")
	}

	return len(md.String()), md.Build()
}

// WritePresence outputs the presence records in Markdown format.
func (w *MarkdownWriter) WritePresence(records []model.CrossBookRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Cross-Book Presence")
	md.PlainText("")
	if len(records) == 0 {
		md.Note("No entities with recorded appearances.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		titles := make([]string, 0, len(record.Books))
		for _, book := range record.Books {
			titles = append(titles, book.Title)
		}
		rows = append(rows, []string{record.EntityName, strings.Join(titles, ", ")})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Entity", "Manuscripts"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) statsRows(stats model.PipelineStats) [][]string {
	rows := [][]string{
		{"Candidates", strconv.Itoa(stats.TotalCandidates)},
		{"Auto-classified", strconv.Itoa(stats.AutoClassified)},
		{"Needs review", strconv.Itoa(stats.NeedsReview)},
		{"Filtered noise", strconv.Itoa(stats.FilteredNoise)},
	}
	if stats.LLMEnhanced > 0 {
		rows = append(rows, []string{"LLM enhanced", strconv.Itoa(stats.LLMEnhanced)})
	}
	if stats.LLMCostUSD != nil {
		rows = append(rows, []string{"LLM cost", fmt.Sprintf("$%.4f", *stats.LLMCostUSD)})
	}
	return rows
}

// writeTypeChart embeds a mermaid pie chart of entity types.
func (w *MarkdownWriter) writeTypeChart(md *markdown.Markdown, entities []model.ClassifiedEntity) {
	counts := make(map[model.EntityType]int)
	for _, entity := range entities {
		counts[entity.Type()]++
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Entity Type Distribution"),
		piechart.WithShowData(true),
	)
	for _, typ := range []model.EntityType{
		model.EntityTypeCharacter,
		model.EntityTypeLocation,
		model.EntityTypeOrganization,
		model.EntityTypeArtifact,
		model.EntityTypeConcept,
		model.EntityTypeEvent,
	} {
		if counts[typ] > 0 {
			chart.LabelAndIntValue(w.titler.String(string(typ)), uint64(counts[typ]))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeEntityTable(md *markdown.Markdown, title string, entities []model.ClassifiedEntity) {
	if len(entities) == 0 {
		return
	}
	md.H2(title)
	rows := make([][]string, 0, len(entities))
	for _, entity := range entities {
		rows = append(rows, []string{
			entity.Name,
			w.titler.String(string(entity.Type())),
			strconv.Itoa(entity.Confidence()),
			string(entity.Source()),
			strconv.Itoa(entity.Frequency),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Name", "Type", "Confidence", "Source", "Frequency"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFilteredTable(md *markdown.Markdown, filtered []model.ClassifiedEntity) {
	if len(filtered) == 0 {
		return
	}
	md.H2("Filtered")
	rows := make([][]string, 0, len(filtered))
	for _, entity := range filtered {
		rows = append(rows, []string{entity.Name, string(entity.FilterReasonTag())})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Name", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}
