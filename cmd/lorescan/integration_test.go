package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/lorescan/internal/config"
	"github.com/nao1215/lorescan/internal/database"
	"github.com/nao1215/lorescan/internal/log"
)

// testLogger returns a quiet logger for command tests.
func testLogger() *slog.Logger {
	return log.NewLogger(io.Discard, false)
}

// TestWorkflow runs the full import -> extract -> detect -> presence
// workflow against a temporary database.
func TestWorkflow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbDir := t.TempDir()
	srcDir := t.TempDir()
	logger := testLogger()

	// Curated names guarantee confident classification regardless of
	// how much context the short test chapters provide.
	gazetteerPath := filepath.Join(srcDir, "lore.yaml")
	gazetteerYAML := `names:
  Aria Stormwind:
    type: character
    confidence: 95
  Ravenport:
    type: location
    confidence: 90
`
	if err := os.WriteFile(gazetteerPath, []byte(gazetteerYAML), 0600); err != nil {
		t.Fatalf("failed to write gazetteer: %v", err)
	}

	chapterOne := filepath.Join(srcDir, "ch01.md")
	body := "# Landfall\n\n" +
		"The tide carried Aria Stormwind into the harbor before dawn. " +
		"Lanterns still burned along the quays of Ravenport, and " +
		"Aria Stormwind counted them as the ship drew close.\n"
	if err := os.WriteFile(chapterOne, []byte(body), 0600); err != nil {
		t.Fatalf("failed to write chapter: %v", err)
	}

	cfg := config.NewConfig()
	cfg.ProjectName = "riverlands"
	cfg.DBDir = dbDir
	cfg.GazetteerPath = gazetteerPath

	// Import
	if err := runImport(ctx, cfg, "fantasy", "The Hollow Crown", []string{chapterOne}, logger); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	// Extract
	if err := runExtract(ctx, cfg, "The Hollow Crown", false, logger); err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	project, err := db.GetProjectByName(ctx, "riverlands")
	if err != nil {
		t.Fatalf("expected project to exist: %v", err)
	}

	entities, err := db.ListEntities(ctx, project.ID)
	if err != nil {
		t.Fatalf("failed to list entities: %v", err)
	}
	names := make(map[string]bool, len(entities))
	for _, e := range entities {
		names[e.Name] = true
	}
	if !names["Aria Stormwind"] {
		t.Error("expected 'Aria Stormwind' to be extracted")
	}
	if !names["Ravenport"] {
		t.Error("expected 'Ravenport' to be extracted")
	}

	// Extract again: stored names are excluded, nothing is duplicated.
	if err := runExtract(ctx, cfg, "The Hollow Crown", false, logger); err != nil {
		t.Fatalf("second extract failed: %v", err)
	}
	after, err := db.ListEntities(ctx, project.ID)
	if err != nil {
		t.Fatalf("failed to list entities: %v", err)
	}
	if len(after) != len(entities) {
		t.Errorf("expected %d entities after re-extract, got %d", len(entities), len(after))
	}

	// Detect
	if err := runDetect(ctx, cfg, "The Hollow Crown", false, logger); err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	manuscript, err := findManuscript(ctx, db, project.ID, "The Hollow Crown")
	if err != nil {
		t.Fatalf("expected manuscript to exist: %v", err)
	}
	appearances, err := db.ListAppearancesByManuscript(ctx, manuscript.ID)
	if err != nil {
		t.Fatalf("failed to list appearances: %v", err)
	}
	if len(appearances) < 2 {
		t.Fatalf("expected appearances for both entities, got %d", len(appearances))
	}

	// Presence
	records, err := db.CrossBookPresence(ctx, project.ID)
	if err != nil {
		t.Fatalf("presence query failed: %v", err)
	}
	if len(records) < 2 {
		t.Fatalf("expected presence records for both entities, got %d", len(records))
	}
	for _, rec := range records {
		if len(rec.Books) != 1 {
			t.Errorf("entity %q: expected 1 book, got %d", rec.EntityName, len(rec.Books))
		}
	}
}

// TestPresenceCmdEmptyProject runs the presence command against a
// project without recorded appearances.
func TestPresenceCmdEmptyProject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbDir := t.TempDir()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.CreateProject(ctx, "riverlands", ""); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}

	cmd := NewPresenceCmd()
	cmd.SetArgs([]string{"-P", "riverlands", "--db-dir", dbDir, "-j"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
