package log

import (
	"io"
	"log/slog"
)

// Options selects the level and format of a secure logger.
type Options struct {
	// Level is the minimum level written.
	Level slog.Level
	// JSON switches from text to JSON output.
	JSON bool
}

// New creates a slog.Logger whose output is sanitized by SecureHandler.
func New(w io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(NewSecureHandler(handler))
}

// NewSecureLogger creates a text logger for command-line use.
// verbose selects Debug; otherwise only warnings and errors are written.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return New(w, Options{Level: levelFor(verbose)})
}

// NewSecureJSONLogger creates a JSON logger for log aggregation.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return New(w, Options{Level: levelFor(verbose), JSON: true})
}

// NewServerLogger creates the API server logger. The server logs each
// request at Info, so Info is the quietest useful level.
func NewServerLogger(w io.Writer, verbose, json bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return New(w, Options{Level: level, JSON: json})
}

func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
