// Package detect finds occurrences of stored entities in manuscript
// chapters and records them as appearances.
//
// Matching is case-insensitive and word-boundary anchored: "Art" matches
// the standalone word but never the prefix of "Arthur". Each entity is
// matched under all of its name variants (primary name, aliases, bare
// first name), and at most one appearance per (entity, chapter) pair is
// ever persisted, so re-running detection on an unchanged manuscript is
// a no-op.
//
// Design decision: each manuscript's run writes through a single
// transactional insert. A failure mid-run therefore leaves no partial
// appearance rows, and project-wide detection isolates failures per
// manuscript instead of aborting the whole scan.
package detect
