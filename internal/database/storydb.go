package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/lorescan/internal/model"
)

// ErrNotFound is returned when a record addressed by id does not exist.
// Callers check it with errors.Is; it is surfaced immediately and never
// retried.
var ErrNotFound = errors.New("record not found")

// StoryDB provides SQLite-based storage for projects, manuscripts,
// chapters, entities, and appearances. It manages connection pooling and
// provides methods for the CRUD operations the engine needs.
//
// Design decision: We use a single database file for all projects rather
// than one file per project. This simplifies cross-book queries and
// backup/restore operations.
type StoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures StoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a StoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*StoryDB, error) {
	dbPath := filepath.Join(dbDir, "lorescan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple readers don't help for
	// our access pattern either.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &StoryDB{
		db:     db,
		dbPath: dbPath,
	}

	// Cascade deletion of chapters/entities/appearances relies on
	// foreign key enforcement.
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *StoryDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *StoryDB) createTables() error {
	schema := `
	-- Projects are fiction series sharing one entity registry
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		genre TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Manuscripts are the books of a project
	CREATE TABLE IF NOT EXISTS manuscripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_manuscripts_project ON manuscripts(project_id);

	-- Chapters hold the raw prose bodies
	CREATE TABLE IF NOT EXISTS chapters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		manuscript_id INTEGER NOT NULL REFERENCES manuscripts(id) ON DELETE CASCADE,
		number INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_chapters_manuscript ON chapters(manuscript_id);

	-- Entities are confirmed named entities; metadata is free-form JSON
	CREATE TABLE IF NOT EXISTS entities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		metadata TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entities_project ON entities(project_id);
	CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);

	-- Appearances record entity occurrences per chapter; the UNIQUE
	-- constraint is the dedup invariant detection relies on
	CREATE TABLE IF NOT EXISTS appearances (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		manuscript_id INTEGER NOT NULL REFERENCES manuscripts(id) ON DELETE CASCADE,
		chapter_id INTEGER NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
		start_offset INTEGER,
		end_offset INTEGER,
		note TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(entity_id, chapter_id)
	);

	CREATE INDEX IF NOT EXISTS idx_appearances_entity ON appearances(entity_id);
	CREATE INDEX IF NOT EXISTS idx_appearances_manuscript ON appearances(manuscript_id);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// CreateProject inserts a new project and returns it with its id.
func (sdb *StoryDB) CreateProject(ctx context.Context, name, genre string) (model.Project, error) {
	result, err := sdb.db.ExecContext(ctx,
		"INSERT INTO projects (name, genre) VALUES (?, ?)", name, genre)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to insert project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to get project id: %w", err)
	}
	return model.Project{ID: id, Name: name, Genre: genre, CreatedAt: time.Now()}, nil
}

// GetProjectByName retrieves a project by its unique name.
// Returns ErrNotFound if no such project exists.
func (sdb *StoryDB) GetProjectByName(ctx context.Context, name string) (model.Project, error) {
	var p model.Project
	var timestamp string
	err := sdb.db.QueryRowContext(ctx,
		"SELECT id, name, genre, created_at FROM projects WHERE name = ?", name).
		Scan(&p.ID, &p.Name, &p.Genre, &timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to get project: %w", err)
	}
	p.CreatedAt = parseTimestamp(timestamp)
	return p, nil
}

// ListProjects returns all projects ordered by name.
func (sdb *StoryDB) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := sdb.db.QueryContext(ctx,
		"SELECT id, name, genre, created_at FROM projects ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var timestamp string
		if err := rows.Scan(&p.ID, &p.Name, &p.Genre, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.CreatedAt = parseTimestamp(timestamp)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateManuscript inserts a new manuscript for a project.
func (sdb *StoryDB) CreateManuscript(ctx context.Context, projectID int64, title string) (model.Manuscript, error) {
	result, err := sdb.db.ExecContext(ctx,
		"INSERT INTO manuscripts (project_id, title) VALUES (?, ?)", projectID, title)
	if err != nil {
		return model.Manuscript{}, fmt.Errorf("failed to insert manuscript: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Manuscript{}, fmt.Errorf("failed to get manuscript id: %w", err)
	}
	return model.Manuscript{ID: id, ProjectID: projectID, Title: title, CreatedAt: time.Now()}, nil
}

// GetManuscript retrieves a manuscript by id.
// Returns ErrNotFound if no such manuscript exists.
func (sdb *StoryDB) GetManuscript(ctx context.Context, id int64) (model.Manuscript, error) {
	var m model.Manuscript
	var timestamp string
	err := sdb.db.QueryRowContext(ctx,
		"SELECT id, project_id, title, created_at FROM manuscripts WHERE id = ?", id).
		Scan(&m.ID, &m.ProjectID, &m.Title, &timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Manuscript{}, fmt.Errorf("manuscript %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Manuscript{}, fmt.Errorf("failed to get manuscript: %w", err)
	}
	m.CreatedAt = parseTimestamp(timestamp)
	return m, nil
}

// ListManuscripts returns all manuscripts of a project ordered by id.
func (sdb *StoryDB) ListManuscripts(ctx context.Context, projectID int64) ([]model.Manuscript, error) {
	rows, err := sdb.db.QueryContext(ctx,
		"SELECT id, project_id, title, created_at FROM manuscripts WHERE project_id = ? ORDER BY id",
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list manuscripts: %w", err)
	}
	defer rows.Close()

	var manuscripts []model.Manuscript
	for rows.Next() {
		var m model.Manuscript
		var timestamp string
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan manuscript: %w", err)
		}
		m.CreatedAt = parseTimestamp(timestamp)
		manuscripts = append(manuscripts, m)
	}
	return manuscripts, rows.Err()
}

// CreateChapter inserts a new chapter body.
func (sdb *StoryDB) CreateChapter(ctx context.Context, manuscriptID int64, number int, title, body string) (model.Chapter, error) {
	result, err := sdb.db.ExecContext(ctx,
		"INSERT INTO chapters (manuscript_id, number, title, body) VALUES (?, ?, ?, ?)",
		manuscriptID, number, title, body)
	if err != nil {
		return model.Chapter{}, fmt.Errorf("failed to insert chapter: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Chapter{}, fmt.Errorf("failed to get chapter id: %w", err)
	}
	return model.Chapter{
		ID: id, ManuscriptID: manuscriptID, Number: number,
		Title: title, Body: body, CreatedAt: time.Now(),
	}, nil
}

// ListChapters returns all chapters of a manuscript in chapter order,
// including bodies.
func (sdb *StoryDB) ListChapters(ctx context.Context, manuscriptID int64) ([]model.Chapter, error) {
	rows, err := sdb.db.QueryContext(ctx,
		"SELECT id, manuscript_id, number, title, body, created_at FROM chapters WHERE manuscript_id = ? ORDER BY number",
		manuscriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		var c model.Chapter
		var timestamp string
		if err := rows.Scan(&c.ID, &c.ManuscriptID, &c.Number, &c.Title, &c.Body, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		c.CreatedAt = parseTimestamp(timestamp)
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

// ListProjectChapters returns all chapters of every manuscript in a
// project. Used by the extraction pipeline's project-wide scan.
func (sdb *StoryDB) ListProjectChapters(ctx context.Context, projectID int64) ([]model.Chapter, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT c.id, c.manuscript_id, c.number, c.title, c.body, c.created_at
	FROM chapters c
	JOIN manuscripts m ON m.id = c.manuscript_id
	WHERE m.project_id = ?
	ORDER BY c.manuscript_id, c.number`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project chapters: %w", err)
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		var c model.Chapter
		var timestamp string
		if err := rows.Scan(&c.ID, &c.ManuscriptID, &c.Number, &c.Title, &c.Body, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		c.CreatedAt = parseTimestamp(timestamp)
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

// CreateEntity inserts a confirmed entity. Metadata is serialized to
// JSON at the write path so malformed metadata never reaches the store.
func (sdb *StoryDB) CreateEntity(ctx context.Context, entity model.Entity) (model.Entity, error) {
	var metadataJSON []byte
	if len(entity.Metadata) > 0 {
		var err error
		metadataJSON, err = json.Marshal(entity.Metadata)
		if err != nil {
			return model.Entity{}, fmt.Errorf("failed to serialize entity metadata: %w", err)
		}
	}

	result, err := sdb.db.ExecContext(ctx,
		"INSERT INTO entities (project_id, type, name, metadata) VALUES (?, ?, ?, ?)",
		entity.ProjectID, string(entity.Type), entity.Name, string(metadataJSON))
	if err != nil {
		return model.Entity{}, fmt.Errorf("failed to insert entity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Entity{}, fmt.Errorf("failed to get entity id: %w", err)
	}
	entity.ID = id
	entity.CreatedAt = time.Now()
	return entity, nil
}

// GetEntity retrieves an entity by id.
// Returns ErrNotFound if no such entity exists.
func (sdb *StoryDB) GetEntity(ctx context.Context, id int64) (model.Entity, error) {
	row := sdb.db.QueryRowContext(ctx,
		"SELECT id, project_id, type, name, metadata, created_at FROM entities WHERE id = ?", id)
	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Entity{}, fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Entity{}, fmt.Errorf("failed to get entity: %w", err)
	}
	return entity, nil
}

// ListEntities returns all entities of a project ordered by name.
func (sdb *StoryDB) ListEntities(ctx context.Context, projectID int64) ([]model.Entity, error) {
	rows, err := sdb.db.QueryContext(ctx,
		"SELECT id, project_id, type, name, metadata, created_at FROM entities WHERE project_id = ? ORDER BY name",
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []model.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanEntity.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntity reads one entity row, deserializing the metadata JSON.
// Malformed stored metadata is an internal defect (the write path
// serializes it), so the parse error is surfaced rather than swallowed.
func scanEntity(row rowScanner) (model.Entity, error) {
	var e model.Entity
	var entityType string
	var metadataJSON sql.NullString
	var timestamp string

	if err := row.Scan(&e.ID, &e.ProjectID, &entityType, &e.Name, &metadataJSON, &timestamp); err != nil {
		return model.Entity{}, err
	}
	e.Type = model.EntityType(entityType)
	e.CreatedAt = parseTimestamp(timestamp)

	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &e.Metadata); err != nil {
			return model.Entity{}, fmt.Errorf("malformed metadata for entity %d: %w", e.ID, err)
		}
	}
	return e, nil
}

// ListAppearancesByEntity returns all appearances of an entity.
func (sdb *StoryDB) ListAppearancesByEntity(ctx context.Context, entityID int64) ([]model.Appearance, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT id, entity_id, manuscript_id, chapter_id, start_offset, end_offset, note, created_at
	FROM appearances WHERE entity_id = ? ORDER BY id`, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appearances: %w", err)
	}
	defer rows.Close()
	return collectAppearances(rows)
}

// ListAppearancesByManuscript returns all appearances recorded within a
// manuscript.
func (sdb *StoryDB) ListAppearancesByManuscript(ctx context.Context, manuscriptID int64) ([]model.Appearance, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT id, entity_id, manuscript_id, chapter_id, start_offset, end_offset, note, created_at
	FROM appearances WHERE manuscript_id = ? ORDER BY id`, manuscriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appearances: %w", err)
	}
	defer rows.Close()
	return collectAppearances(rows)
}

// collectAppearances drains an appearance result set.
func collectAppearances(rows *sql.Rows) ([]model.Appearance, error) {
	var appearances []model.Appearance
	for rows.Next() {
		var a model.Appearance
		var start, end sql.NullInt64
		var timestamp string
		if err := rows.Scan(&a.ID, &a.EntityID, &a.ManuscriptID, &a.ChapterID, &start, &end, &a.Note, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan appearance: %w", err)
		}
		a.Start = int(start.Int64)
		a.End = int(end.Int64)
		a.CreatedAt = parseTimestamp(timestamp)
		appearances = append(appearances, a)
	}
	return appearances, rows.Err()
}

// InsertAppearances inserts a batch of appearance rows inside a single
// transaction, skipping rows whose (entity, chapter) pair already
// exists. The returned slice is aligned with the input and reports which
// rows were actually created.
//
// Design decision: The whole batch commits or rolls back as one unit so
// a failure mid-manuscript leaves no orphaned rows, and the ON CONFLICT
// clause makes check-then-insert atomic under concurrent callers.
func (sdb *StoryDB) InsertAppearances(ctx context.Context, appearances []model.Appearance) ([]bool, error) {
	created := make([]bool, len(appearances))
	if len(appearances) == 0 {
		return created, nil
	}

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after successful commit

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO appearances (entity_id, manuscript_id, chapter_id, start_offset, end_offset, note)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(entity_id, chapter_id) DO NOTHING`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare appearance insert: %w", err)
	}
	defer stmt.Close()

	for i, a := range appearances {
		result, err := stmt.ExecContext(ctx, a.EntityID, a.ManuscriptID, a.ChapterID, a.Start, a.End, a.Note)
		if err != nil {
			return nil, fmt.Errorf("failed to insert appearance: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read rows affected: %w", err)
		}
		created[i] = affected > 0
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit appearances: %w", err)
	}
	return created, nil
}

// CrossBookPresence returns, for every entity of the project with at
// least one appearance, the deduplicated set of manuscripts it appears
// in. This is a pure read-side aggregation.
func (sdb *StoryDB) CrossBookPresence(ctx context.Context, projectID int64) ([]model.CrossBookRecord, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT DISTINCT e.id, e.name, m.id, m.title
	FROM appearances a
	JOIN entities e ON e.id = a.entity_id
	JOIN manuscripts m ON m.id = a.manuscript_id
	WHERE e.project_id = ?
	ORDER BY e.name, m.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cross-book presence: %w", err)
	}
	defer rows.Close()

	var records []model.CrossBookRecord
	index := make(map[int64]int)
	for rows.Next() {
		var entityID, manuscriptID int64
		var entityName, title string
		if err := rows.Scan(&entityID, &entityName, &manuscriptID, &title); err != nil {
			return nil, fmt.Errorf("failed to scan presence row: %w", err)
		}
		i, ok := index[entityID]
		if !ok {
			i = len(records)
			index[entityID] = i
			records = append(records, model.CrossBookRecord{EntityID: entityID, EntityName: entityName})
		}
		records[i].Books = append(records[i].Books, model.BookRef{ManuscriptID: manuscriptID, Title: title})
	}
	return records, rows.Err()
}

// DeleteEntity removes an entity; its appearances cascade.
func (sdb *StoryDB) DeleteEntity(ctx context.Context, id int64) error {
	result, err := sdb.db.ExecContext(ctx, "DELETE FROM entities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	return nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
