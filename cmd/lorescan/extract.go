package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/lorescan/internal/config"
	"github.com/nao1215/lorescan/internal/database"
	"github.com/nao1215/lorescan/internal/enhance"
	"github.com/nao1215/lorescan/internal/gazetteer"
	"github.com/nao1215/lorescan/internal/log"
	"github.com/nao1215/lorescan/internal/model"
	"github.com/nao1215/lorescan/internal/pipeline"
	"github.com/nao1215/lorescan/internal/report"
	"github.com/nao1215/lorescan/internal/scanner"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [manuscript-title]",
		Short: "Extract and classify named entities from a manuscript",
		Long: `Extract scans the chapters of a stored manuscript for candidate names,
classifies them (character, location, organization, ...), and saves the
confirmed entities to the project registry.

Classification runs a layered heuristic chain: noise pre-filters, the
curated gazetteer, context scoring around each occurrence, and shape
rules. Candidates below the confidence threshold are flagged for review
instead of being saved.

With --enhance, flagged candidates are sent to an OpenAI-compatible chat
API for a second opinion. The API key is read from the environment
(OPENAI_API_KEY by default); if enhancement fails, local results are
kept unchanged.

Examples:
  # Extract entities from a manuscript of the "riverlands" project
  lorescan extract -P riverlands "The Hollow Crown"

  # Use a custom gazetteer extension and lower the review threshold
  lorescan extract -P riverlands -g lore.yaml --threshold 40 "The Hollow Crown"

  # Enable LLM enhancement for flagged candidates
  lorescan extract -P riverlands --enhance "The Hollow Crown"

  # Classify only, without saving entities
  lorescan extract -P riverlands --dry-run "The Hollow Crown"

Configuration file (.lorescan) example:
  project: riverlands
  confidence_threshold: 50
  gazetteer: lore.yaml
  enhance:
    enabled: true
    model: gpt-4o-mini
    timeout: 2m`,
		Args: cobra.ExactArgs(1),
		RunE: runExtractCmd,
	}

	// Project and classification flags
	cmd.Flags().StringP("project", "P", "",
		"Project (series) name the manuscript belongs to")
	cmd.Flags().IntP("threshold", "t", config.DefaultConfidenceThreshold,
		"Confidence threshold below which candidates are flagged for review (0-100)")
	cmd.Flags().StringP("gazetteer", "g", "",
		"Path to a YAML gazetteer extension file")
	cmd.Flags().Bool("dry-run", false,
		"Classify without saving entities to the database")

	// Enhancement flags
	cmd.Flags().BoolP("enhance", "e", false,
		"Send flagged candidates to an LLM for a second opinion")
	cmd.Flags().String("model", "",
		"Chat model for enhancement (default: gpt-4o-mini)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .lorescan in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write a copy of the report to the specified file path")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}

	// Set up structured logging
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runExtract(ctx, cfg, args[0], dryRun, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// signalContext returns a context cancelled on SIGINT/SIGTERM for
// graceful shutdown of long-running commands.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// buildConfig creates a Config from the config file and cobra flags.
// File values are applied first so explicitly set flags win.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently skip when no file is found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if project, err := cmd.Flags().GetString("project"); err == nil && project != "" {
		cfg.ProjectName = project
	}

	if cmd.Flags().Changed("threshold") {
		cfg.ConfidenceThreshold, err = cmd.Flags().GetInt("threshold")
		if err != nil {
			return nil, err
		}
	}

	if gazetteerPath, err := cmd.Flags().GetString("gazetteer"); err == nil && gazetteerPath != "" {
		cfg.GazetteerPath = gazetteerPath
	}

	if cmd.Flags().Changed("enhance") {
		cfg.EnhanceEnabled, err = cmd.Flags().GetBool("enhance")
		if err != nil {
			return nil, err
		}
	}

	if llmModel, err := cmd.Flags().GetString("model"); err == nil && llmModel != "" {
		cfg.LLMModel = llmModel
	}

	if dbDir, err := cmd.Flags().GetString("db-dir"); err == nil && dbDir != "" {
		cfg.DBDir = dbDir
	}

	// Report flags are absent on commands without report output.
	if jsonReport, err := cmd.Flags().GetBool("json"); err == nil {
		cfg.JSONReport = jsonReport
	}

	if markdownReport, err := cmd.Flags().GetBool("markdown"); err == nil {
		cfg.MarkdownReport = markdownReport
	}

	if reportFile, err := cmd.Flags().GetString("output"); err == nil {
		cfg.ReportFile = reportFile
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// runExtract executes the extraction.
func runExtract(ctx context.Context, cfg *config.Config, manuscriptTitle string, dryRun bool, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	project, err := db.GetProjectByName(ctx, cfg.ProjectName)
	if err != nil {
		return fmt.Errorf("project %q: %w", cfg.ProjectName, err)
	}

	manuscript, err := findManuscript(ctx, db, project.ID, manuscriptTitle)
	if err != nil {
		return err
	}

	chapters, err := db.ListChapters(ctx, manuscript.ID)
	if err != nil {
		return fmt.Errorf("failed to load chapters: %w", err)
	}
	if len(chapters) == 0 {
		return fmt.Errorf("manuscript %q has no chapters (use \"lorescan import\" first)", manuscript.Title)
	}

	g, err := gazetteer.Load(cfg.GazetteerPath)
	if err != nil {
		return err
	}

	logger.Info("starting extraction",
		"project", project.Name,
		"manuscript", manuscript.Title,
		"chapters", len(chapters),
		"threshold", cfg.ConfidenceThreshold,
		"enhance", cfg.EnhanceEnabled,
	)

	fmt.Printf("Extracting entities from %q (%d chapters)...\n", manuscript.Title, len(chapters))
	startTime := time.Now()

	candidates := scanner.New(g, scanner.WithLogger(logger)).Scan(chapters)

	// Names already in the registry are skipped, not re-extracted.
	stored, err := db.ListEntities(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to list stored entities: %w", err)
	}
	excluded := make([]string, 0, len(stored))
	for _, e := range stored {
		excluded = append(excluded, e.Name)
	}

	opts := []pipeline.Option{
		pipeline.WithConfidenceThreshold(cfg.ConfidenceThreshold),
		pipeline.WithExcludedNames(excluded),
		pipeline.WithLogger(logger),
	}
	if cfg.Verbose {
		opts = append(opts, pipeline.WithObserver(func(ev pipeline.Event) {
			fmt.Fprintf(os.Stderr, "  [%s] %s\n", ev.Stage, ev.Detail)
		}))
	}

	runCtx := ctx
	if cfg.EnhanceEnabled {
		enhancer, err := buildEnhancer(cfg, logger)
		if err != nil {
			return err
		}
		if enhancer != nil {
			opts = append(opts, pipeline.WithEnhancer(enhancer))

			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, cfg.LLMTimeout)
			defer cancel()
		}
	}

	result := pipeline.New(g, opts...).Run(runCtx, candidates, manuscript.Title, project.Genre)

	if !dryRun {
		saved, err := saveEntities(ctx, db, project.ID, result.Entities)
		if err != nil {
			return err
		}
		logger.Info("entities saved", "count", saved)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Extraction completed in %s\n\n", elapsed.Round(time.Millisecond))

	writer, closeWriter, err := newReportWriter(cfg)
	if err != nil {
		return err
	}
	defer closeWriter()

	_, err = writer.WriteExtraction(result)
	return err
}

// buildEnhancer constructs the LLM client from config. Returns nil (and
// logs a warning) when enhancement is enabled but no API key is set, so
// extraction degrades to local-only classification instead of failing.
func buildEnhancer(cfg *config.Config, logger *slog.Logger) (*enhance.Client, error) {
	apiKey := os.Getenv(cfg.LLMAPIKeyEnv)
	if apiKey == "" {
		logger.Warn("enhancement enabled but API key not set; continuing with local classification only",
			"env", cfg.LLMAPIKeyEnv)
		fmt.Fprintf(os.Stderr, "Warning: %s is not set; skipping LLM enhancement.\n", cfg.LLMAPIKeyEnv)
		return nil, nil
	}

	return enhance.NewClient(apiKey, cfg.LLMBaseURL, nil,
		enhance.WithModel(cfg.LLMModel),
		enhance.WithLogger(logger),
	)
}

// findManuscript resolves a manuscript by title within a project.
func findManuscript(ctx context.Context, db *database.StoryDB, projectID int64, title string) (model.Manuscript, error) {
	manuscripts, err := db.ListManuscripts(ctx, projectID)
	if err != nil {
		return model.Manuscript{}, fmt.Errorf("failed to list manuscripts: %w", err)
	}

	for _, m := range manuscripts {
		if strings.EqualFold(m.Title, title) {
			return m, nil
		}
	}

	titles := make([]string, 0, len(manuscripts))
	for _, m := range manuscripts {
		titles = append(titles, m.Title)
	}
	if len(titles) == 0 {
		return model.Manuscript{}, fmt.Errorf("manuscript %q not found (project has no manuscripts)", title)
	}
	return model.Manuscript{}, fmt.Errorf("manuscript %q not found (available: %s)", title, strings.Join(titles, ", "))
}

// saveEntities persists classified entities to the registry. Filtered
// and needs-review candidates are never saved.
func saveEntities(ctx context.Context, db *database.StoryDB, projectID int64, entities []model.ClassifiedEntity) (int, error) {
	saved := 0
	for _, e := range entities {
		_, err := db.CreateEntity(ctx, model.Entity{
			ProjectID: projectID,
			Type:      e.Type(),
			Name:      e.Name,
		})
		if err != nil {
			return saved, fmt.Errorf("failed to save entity %q: %w", e.Name, err)
		}
		saved++
	}
	return saved, nil
}

// newReportWriter builds the report writer from config: JSON, Markdown,
// or human-readable text on stdout, with an optional file copy in the
// same format. The returned func closes the file copy, if any.
func newReportWriter(cfg *config.Config) (report.Writer, func() error, error) {
	noop := func() error { return nil }

	writer, err := formatWriter(cfg, os.Stdout)
	if err != nil {
		return nil, nil, err
	}
	if cfg.ReportFile == "" {
		return writer, noop, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	fileWriter, err := formatWriter(cfg, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return report.NewMultiWriter(writer, fileWriter), f.Close, nil
}

// formatWriter selects the writer implementation for the configured format.
func formatWriter(cfg *config.Config, output io.Writer) (report.Writer, error) {
	switch {
	case cfg.JSONReport && cfg.MarkdownReport:
		return nil, errors.New("cannot use both --json and --markdown")
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithIndent("", "  ")), nil
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output), nil
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose)), nil
	}
}
