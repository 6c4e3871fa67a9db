package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/lorescan/internal/config"
	"github.com/nao1215/lorescan/internal/database"
	"github.com/nao1215/lorescan/internal/detect"
	"github.com/nao1215/lorescan/internal/log"
	"github.com/nao1215/lorescan/internal/model"
)

// NewDetectCmd creates the detect command.
func NewDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect [manuscript-title]",
		Short: "Detect stored entities in a manuscript",
		Long: `Detect matches the project's entity registry against chapter prose and
records where each entity appears. Matching is case-insensitive on whole
words and covers aliases and bare first names.

Appearances are recorded once per entity per chapter; re-running detect
on the same manuscript reports matches but records nothing new. When an
entity already seen in another book appears in this manuscript for the
first time, it is reported as a cross-book appearance.

Examples:
  # Detect entities in one manuscript
  lorescan detect -P riverlands "The Hollow Crown"

  # Detect across every manuscript of the project
  lorescan detect -P riverlands --all

  # JSON output for scripting
  lorescan detect -P riverlands --all -j`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDetectCmd,
	}

	cmd.Flags().StringP("project", "P", "",
		"Project (series) name the manuscript belongs to")
	cmd.Flags().BoolP("all", "a", false,
		"Detect across all manuscripts of the project")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of manuscripts processed in parallel with --all")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .lorescan in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write a copy of the report to the specified file path")

	return cmd
}

// runDetectCmd executes the detect command.
func runDetectCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildDetectConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	if !all && len(args) == 0 {
		return errors.New("specify a manuscript title or use --all")
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	title := ""
	if len(args) > 0 {
		title = args[0]
	}
	return runDetect(ctx, cfg, title, all, logger)
}

// buildDetectConfig creates a Config for the detect command, layering
// the config file under explicitly set flags.
func buildDetectConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// runDetect executes detection over one manuscript or the whole project.
func runDetect(ctx context.Context, cfg *config.Config, manuscriptTitle string, all bool, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	project, err := db.GetProjectByName(ctx, cfg.ProjectName)
	if err != nil {
		return fmt.Errorf("project %q: %w", cfg.ProjectName, err)
	}

	engine := detect.New(db,
		detect.WithConcurrency(cfg.Concurrency),
		detect.WithLogger(logger),
	)

	startTime := time.Now()

	var result model.DetectionResult
	if all {
		fmt.Printf("Detecting entities across project %q...\n", project.Name)
		result, err = engine.DetectFullProject(ctx, project.ID)
	} else {
		var manuscript model.Manuscript
		manuscript, err = findManuscript(ctx, db, project.ID, manuscriptTitle)
		if err != nil {
			return err
		}
		fmt.Printf("Detecting entities in %q...\n", manuscript.Title)
		result, err = engine.Detect(ctx, project.ID, manuscript.ID)
	}
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Detection completed in %s\n\n", elapsed.Round(time.Millisecond))

	writer, closeWriter, err := newReportWriter(cfg)
	if err != nil {
		return err
	}
	defer closeWriter()

	_, err = writer.WriteDetection(result)
	return err
}
