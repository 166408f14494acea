// Package log provides the logging infrastructure for sqlmint.
//
// Loggers are injected, not global: each component receives a *slog.Logger
// via its constructor and may add context with logger.With(). Delete
// diagnostics, skipped export rows, and token estimates all flow through
// here rather than through ad-hoc prints.
//
// Usage:
//
//	logger := log.New(log.Config{Level: slog.LevelDebug})
//	store := training.NewStore(sqlColl, ddlColl, docColl, corpus, logger.With("component", "training"))
//
//	// In tests, use a Nop logger or capture to a buffer
//	testLogger := log.NewNop()
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a type alias for *slog.Logger, the dependency components accept.
// Using the standard library type directly keeps full compatibility with the
// slog ecosystem and With() for attaching context.
type Logger = *slog.Logger

// Config defines logger configuration options.
type Config struct {
	// Level sets the minimum log level. Default: slog.LevelInfo
	Level slog.Level

	// JSON enables JSON format output. Default: false (text format)
	JSON bool

	// AddSource adds source file information to log entries. Default: false
	AddSource bool
}

// New creates a logger with the given configuration, writing to os.Stderr.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a logger that writes to the specified writer.
// Useful for capturing log output in tests.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// NewNop creates a logger that discards all output. Tests only; production
// code should use New or NewWithWriter so logs are never silently dropped.
func NewNop() Logger {
	return slog.New(slog.DiscardHandler)
}
