package config

import "errors"

// Configuration validation errors.
//
// Design decision: package-level sentinel errors rather than new error
// instances in Validate(), so callers can use errors.Is() while still
// getting a human-readable message.
var (
	// ErrNoProject is returned when no project name is specified via
	// flag or config file.
	ErrNoProject = errors.New("no project specified: use --project or set one in .lorescan")

	// ErrInvalidThreshold is returned when the confidence threshold is
	// outside [0, 100].
	ErrInvalidThreshold = errors.New("invalid confidence threshold: must be between 0 and 100")

	// ErrInvalidConcurrency is returned when the detection concurrency
	// is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidTimeout is returned when the enhancement timeout is not
	// positive.
	ErrInvalidTimeout = errors.New("invalid enhancement timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
