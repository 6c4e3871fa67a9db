// Package pipeline orchestrates entity extraction: raw scanner candidates
// flow through classification, optional remote enhancement, and partition
// into the valid / needs-review / filtered result bundle.
//
// The synchronous phase is a pure transform over the candidate list.
// Remote enhancement is the only suspending step, and any failure in it
// degrades the run to its phase-one results instead of aborting.
//
// Design decision: progress is reported through an observer callback
// (stage plus detail) rather than a concrete UI or log dependency, so the
// same pipeline core serves the CLI, tests, and any future frontend
// without modification.
package pipeline
