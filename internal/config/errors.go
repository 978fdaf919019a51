package config

import "errors"

// Configuration validation errors returned by the Validate methods.
var (
	// ErrNoTarget is returned when a scan has neither positional URLs nor a --list file.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxBulkURLs is returned when the bulk limit is not positive.
	ErrInvalidMaxBulkURLs = errors.New("invalid max bulk URLs: must be positive")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	// Use 0 to disable rate limiting.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidHistoryLimit is returned when the history page size is not positive.
	ErrInvalidHistoryLimit = errors.New("invalid history limit: must be positive")

	// ErrInvalidShutdownTimeout is returned when the shutdown timeout is not positive.
	ErrInvalidShutdownTimeout = errors.New("invalid shutdown timeout: must be positive")

	// ErrInvalidListenAddress is returned when the listen address is not "host:port".
	ErrInvalidListenAddress = errors.New("invalid listen address: expected host:port")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrNoDBDir is returned when persistence is enabled without a database directory.
	ErrNoDBDir = errors.New("database directory is empty: set --db-dir or disable saving")
)
