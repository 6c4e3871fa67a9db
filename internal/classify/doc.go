// Package classify implements the layered entity classifier.
//
// Classification runs a strict decision chain; the first layer that fires
// wins and later layers are skipped:
//
//  1. Pre-filters: noise words, street-address shapes, and listed all-caps
//     acronyms are rejected before any scoring.
//  2. Gazetteer: an exact curated-name hit adopts the configured type and
//     confidence verbatim.
//  3. Context scoring: sample snippets are scanned for character, location,
//     and organization signal families; the strictly highest score wins,
//     with ties preferring character over location over organization.
//  4. Shape heuristics: token shape decides when no context signal fired.
//  5. Default: anything left is a character at low confidence, favoring
//     recall for proper nouns at the cost of precision.
//
// Design decision: Classify is a pure value-to-value transform with no
// failure mode; every candidate resolves to exactly one classification.
// Keeping it pure makes the scoring rules trivially table-testable and
// lets the pipeline re-run classification without side effects.
package classify
