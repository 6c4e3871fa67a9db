package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/nao1215/lorescan/internal/config"
	"github.com/nao1215/lorescan/internal/database"
	"github.com/nao1215/lorescan/internal/log"
	"github.com/nao1215/lorescan/internal/model"
)

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [manuscript-title] [chapter-files...]",
		Short: "Import chapter files into a manuscript",
		Long: `Import loads UTF-8 text or Markdown files as chapters of a manuscript,
one chapter per file, in the order the files are given. The chapter
title is taken from the first Markdown heading, falling back to the
file name.

The project and manuscript are created on first use. Chapters appended
to an existing manuscript continue its numbering.

Examples:
  # Import chapters into a new manuscript of a new project
  lorescan import -P riverlands --genre fantasy "The Hollow Crown" ch01.md ch02.md

  # Append chapters to an existing manuscript
  lorescan import -P riverlands "The Hollow Crown" ch03.md`,
		Args: cobra.MinimumNArgs(2),
		RunE: runImportCmd,
	}

	cmd.Flags().StringP("project", "P", "",
		"Project (series) name to import into")
	cmd.Flags().String("genre", "",
		"Genre recorded when the project is first created")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .lorescan in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	return cmd
}

// runImportCmd executes the import command.
func runImportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.ProjectName == "" {
		return errors.New("no project specified (use --project or a .lorescan config file)")
	}

	genre, err := cmd.Flags().GetString("genre")
	if err != nil {
		return err
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runImport(ctx, cfg, genre, args[0], args[1:], logger)
}

// runImport loads the chapter files into the manuscript, creating the
// project and manuscript on first use.
func runImport(ctx context.Context, cfg *config.Config, genre, manuscriptTitle string, files []string, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	project, err := db.GetProjectByName(ctx, cfg.ProjectName)
	if errors.Is(err, database.ErrNotFound) {
		project, err = db.CreateProject(ctx, cfg.ProjectName, genre)
		if err == nil {
			logger.Info("project created", "name", project.Name, "genre", genre)
		}
	}
	if err != nil {
		return fmt.Errorf("project %q: %w", cfg.ProjectName, err)
	}

	manuscript, err := findManuscript(ctx, db, project.ID, manuscriptTitle)
	if err != nil {
		manuscript, err = db.CreateManuscript(ctx, project.ID, manuscriptTitle)
		if err != nil {
			return fmt.Errorf("failed to create manuscript: %w", err)
		}
		logger.Info("manuscript created", "title", manuscript.Title)
	}

	existing, err := db.ListChapters(ctx, manuscript.ID)
	if err != nil {
		return fmt.Errorf("failed to list chapters: %w", err)
	}
	nextNumber := len(existing) + 1

	for _, path := range files {
		chapter, err := readChapterFile(path)
		if err != nil {
			return err
		}

		created, err := db.CreateChapter(ctx, manuscript.ID, nextNumber, chapter.Title, chapter.Body)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		logger.Debug("chapter imported",
			"number", created.Number,
			"title", created.Title,
			"bytes", len(created.Body),
		)
		nextNumber++
	}

	fmt.Printf("Imported %d chapter(s) into %q (project %q, %d total)\n",
		len(files), manuscript.Title, project.Name, nextNumber-1)
	return nil
}

// readChapterFile reads one chapter file and derives its title from the
// first Markdown heading, falling back to the file name stem.
func readChapterFile(path string) (model.Chapter, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided chapter path is intentional
	if err != nil {
		return model.Chapter{}, fmt.Errorf("failed to read chapter file: %w", err)
	}
	if !utf8.Valid(data) {
		return model.Chapter{}, fmt.Errorf("chapter file %s is not valid UTF-8", path)
	}

	body := string(data)
	title := chapterTitle(body)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return model.Chapter{Title: title, Body: body}, nil
}

// chapterTitle returns the text of the first Markdown heading, or "".
func chapterTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "#"); ok {
			return strings.TrimSpace(strings.TrimLeft(rest, "#"))
		}
		if trimmed != "" {
			break
		}
	}
	return ""
}
