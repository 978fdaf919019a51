package config

import (
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "phishguard"

	// DefaultListenAddress is where the API server listens.
	// The original service ran on port 8000, and browser extensions expect it there.
	DefaultListenAddress = ":8000"

	// DefaultBatchSize is the number of URLs analyzed concurrently in a batch.
	// Analysis is CPU-bound and fast, so this mostly bounds storage writes.
	DefaultBatchSize = 10

	// DefaultMaxBulkURLs is the largest list accepted by bulk analysis.
	DefaultMaxBulkURLs = 10

	// DefaultRateLimitPerMinute is the number of API requests allowed per
	// client address per minute. Zero disables rate limiting.
	DefaultRateLimitPerMinute = 120

	// DefaultHistoryLimit is the page size for scan history.
	DefaultHistoryLimit = 10

	// DefaultShutdownTimeout bounds graceful server shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultReadHeaderTimeout protects the server from slow clients.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultUserID owns scans saved from the command line.
	DefaultUserID = "local"
)

// Environment variables that override configuration.
const (
	// EnvDBDir overrides the database directory.
	EnvDBDir = "PHISHGUARD_DB_DIR"
	// EnvPort overrides the port of the listen address.
	EnvPort = "PORT"
)

// Config holds all configuration options for PhishGuard.
// It is populated from defaults, the optional config file, the environment
// and CLI flags, in that order, and passed down explicitly.
type Config struct {
	// ListenAddress is the "host:port" the API server binds to.
	ListenAddress string

	// CORSOrigins lists origins allowed to call the API. "*" allows any origin.
	CORSOrigins []string

	// RateLimitPerMinute caps requests per client address. Zero disables the limit.
	RateLimitPerMinute int

	// ShutdownTimeout bounds how long in-flight requests may run after a stop signal.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout is passed to http.Server.
	ReadHeaderTimeout time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of URLs analyzed concurrently.
	BatchSize int

	// MaxBulkURLs is the largest number of URLs accepted by one bulk request.
	MaxBulkURLs int

	// HistoryLimit is the default number of scans returned by history queries.
	HistoryLimit int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .phishguard in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output with tables and a pie chart.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Explain adds every raw finding and its weight to reports.
	Explain bool

	// Targets is the list of URLs to analyze from the command line.
	Targets []string

	// UserID owns scans saved from the command line.
	UserID string

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/phishguard on Linux).
	DBDir string

	// SaveToDB indicates whether analysis results are persisted.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ListenAddress:      DefaultListenAddress,
		CORSOrigins:        []string{"*"},
		RateLimitPerMinute: DefaultRateLimitPerMinute,
		ShutdownTimeout:    DefaultShutdownTimeout,
		ReadHeaderTimeout:  DefaultReadHeaderTimeout,
		BatchSize:          DefaultBatchSize,
		MaxBulkURLs:        DefaultMaxBulkURLs,
		HistoryLimit:       DefaultHistoryLimit,
		UserID:             DefaultUserID,
		DBDir:              XDGDataDir(),
		SaveToDB:           true,
	}
}

// XDGDataDir returns the XDG data directory for PhishGuard.
// On Linux: ~/.local/share/phishguard
// On macOS: ~/Library/Application Support/phishguard
// On Windows: %LOCALAPPDATA%\phishguard
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for PhishGuard.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyEnv overrides settings from PHISHGUARD_DB_DIR and PORT.
// lookup is usually os.LookupEnv; tests pass a map-backed function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if dir, ok := lookup(EnvDBDir); ok && dir != "" {
		c.DBDir = dir
	}
	if port, ok := lookup(EnvPort); ok && port != "" {
		host, _, err := net.SplitHostPort(c.ListenAddress)
		if err != nil {
			host = ""
		}
		c.ListenAddress = net.JoinHostPort(host, port)
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.MaxBulkURLs <= 0 {
		return ErrInvalidMaxBulkURLs
	}

	if c.RateLimitPerMinute < 0 {
		return ErrInvalidRateLimit
	}

	if c.HistoryLimit <= 0 {
		return ErrInvalidHistoryLimit
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	return nil
}

// ValidateScan validates the configuration for a command-line scan,
// which additionally needs at least one target.
func (c *Config) ValidateScan() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.Validate()
}

// ValidateServe validates the configuration for the API server.
func (c *Config) ValidateServe() error {
	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		return ErrInvalidListenAddress
	}
	return c.Validate()
}
