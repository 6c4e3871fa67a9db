// Package model defines the core data structures used throughout lorescan.
//
// This package contains the following main types:
//   - RawCandidate: An entity mention surfaced from prose by the scanner
//   - ClassifiedEntity: A candidate with its resolved classification
//   - Entity / Appearance: The durable records kept in the store
//   - PipelineResult / DetectionResult: The plain data bundles returned by
//     the extraction pipeline and the matching engine
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (scanner, classify, pipeline, detect, report)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
