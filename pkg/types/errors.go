package types

import "errors"

// Domain errors shared across components. Components wrap these with
// fmt.Errorf("...: %w", err) so callers can classify failures with errors.Is.
var (
	// ErrConfiguration indicates a bad or missing working directory or option
	ErrConfiguration = errors.New("invalid configuration")

	// ErrProviderUnavailable indicates the embedding backend failed to
	// initialize or answer a call
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrIndexUnavailable indicates no chunks are indexed yet and the initial
	// sync did not complete within the grace period
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrJobNotFound indicates an unknown job id
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotCancellable indicates a cancel request against a job that is
	// not in a cancellable state
	ErrJobNotCancellable = errors.New("job not cancellable")

	// ErrTimeout covers both provider call timeouts and job-level timeouts
	ErrTimeout = errors.New("operation timed out")
)

// Result validation errors
var (
	ErrInvalidSimilarity = errors.New("similarity must be between 0 and 1")
	ErrMissingFileInfo   = errors.New("file info is required")
	ErrEmptyContent      = errors.New("content cannot be empty")
)
