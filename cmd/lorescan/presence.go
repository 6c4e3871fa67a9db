package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/lorescan/internal/database"
	"github.com/nao1215/lorescan/internal/log"
)

// NewPresenceCmd creates the presence command.
func NewPresenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presence",
		Short: "Show which books each entity appears in",
		Long: `Presence reports the cross-book footprint of the project's entities:
every entity with at least one recorded appearance, together with the
manuscripts it appears in. Run "lorescan detect" first to record
appearances.

Examples:
  # Human-readable presence report
  lorescan presence -P riverlands

  # Markdown report written to a file
  lorescan presence -P riverlands -m -o presence.md`,
		Args: cobra.NoArgs,
		RunE: runPresenceCmd,
	}

	cmd.Flags().StringP("project", "P", "",
		"Project (series) name to report on")

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

// runPresenceCmd executes the presence command.
func runPresenceCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	project, err := db.GetProjectByName(ctx, cfg.ProjectName)
	if err != nil {
		return fmt.Errorf("project %q: %w", cfg.ProjectName, err)
	}

	records, err := db.CrossBookPresence(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to query presence: %w", err)
	}

	writer, closeWriter, err := newReportWriter(cfg)
	if err != nil {
		return err
	}
	defer closeWriter()

	_, err = writer.WritePresence(records)
	return err
}
