// Package log provides the logging infrastructure for the worms-agent
// application.
//
// Loggers are injected, never global: each component receives a log.Logger
// through its constructor and may add context via logger.With(). The agent
// tags every entry with a category attribute (see Category constants) so
// that cache hits, tool executions and agent lifecycle events can be
// filtered apart.
//
// Usage:
//
//	logger := log.New(log.Config{Level: slog.LevelDebug})
//	client := worms.NewClient(cfg, logger.With("component", "worms"))
//
//	// In tests, use a Nop logger or capture to a buffer:
//	testLogger := log.NewNop()
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a type alias for *slog.Logger. Components accept log.Logger as a
// dependency; the alias keeps full compatibility with the slog ecosystem
// without a custom interface.
type Logger = *slog.Logger

// Category values label log entries by subsystem. They are emitted as the
// "category" attribute on structured entries.
const (
	CategoryCache = "CACHE"
	CategoryTool  = "TOOL"
	CategoryAgent = "AGENT"
)

// Config defines logger configuration options.
type Config struct {
	// Level sets the minimum log level. Default: slog.LevelInfo
	Level slog.Level

	// JSON enables JSON format output. Default: false (text format)
	JSON bool

	// AddSource adds source file information to log entries. Default: false
	AddSource bool
}

// New creates a new logger with the given configuration.
// Output is written to os.Stderr.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a new logger that writes to the specified writer.
// Useful for testing or custom output destinations.
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

// NewNop creates a logger that discards all output. Intended for tests only;
// production code should use New or NewWithWriter.
func NewNop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
