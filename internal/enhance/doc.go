// Package enhance submits low-confidence entity candidates to a remote
// language model and maps its answers back onto the candidate list.
//
// The collaborator is strictly optional: callers treat any error from
// Enhance as a degradation signal and keep their locally classified
// results. Nothing in this package is required for extraction to work.
//
// Design decision: Enhance returns the full batch outcome as a Result
// value rather than mutating its input. The caller decides how to merge
// verdicts, which keeps the merge semantics (noise flagging, type
// overrides, preserved fields) in one place instead of split across the
// network layer and the pipeline.
package enhance
