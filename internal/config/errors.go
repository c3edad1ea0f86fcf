package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no target URL is specified.
	ErrNoTarget = errors.New("no target specified: provide one or more URLs")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDeadline is returned when the per-check deadline is not
	// positive. A zero deadline would time out every concurrent check.
	ErrInvalidDeadline = errors.New("invalid check deadline: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidFreshnessBounds is returned when either freshness bound
	// is negative. Use the defaults (30/95 days) unless policy changes.
	ErrInvalidFreshnessBounds = errors.New("invalid freshness bounds: must be non-negative")

	// ErrInvalidSimilarityThreshold is returned when the similarity
	// threshold falls outside [0,1].
	ErrInvalidSimilarityThreshold = errors.New("invalid similarity threshold: must be in [0,1]")

	// ErrInvalidNetworkMinimum is returned when the premium-network
	// minimum is below one.
	ErrInvalidNetworkMinimum = errors.New("invalid premium network minimum: must be at least 1")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is
	// negative. Use 0 to select the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
