// Package database provides SQLite-based storage for lorescan.
//
// This package implements the StoryDB, which stores:
//   - Projects (fiction series) and their manuscripts and chapters
//   - Confirmed entities with free-form metadata
//   - Appearance records linking entities to the chapters they occur in
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// The Appearance dedup invariant (at most one row per entity and chapter)
// is enforced by a UNIQUE constraint rather than application-level checks,
// so it holds under concurrent detection runs as well.
package database
