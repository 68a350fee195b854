// Package logging sets up the structured logger used across stencilgen.
package logging

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// Options controls where log records are sent.
type Options struct {
	// Verbose enables debug-level records on the stderr handler.
	Verbose bool

	// LogFile, if non-empty, additionally receives JSON records regardless
	// of verbosity.
	LogFile string
}

// New builds a slog.Logger that fans out to stderr (human-readable,
// level-gated by Verbose) and, when requested, a JSON log file.
func New(opts Options) (*slog.Logger, func() error, error) {
	stderrLevel := slog.LevelInfo
	if opts.Verbose {
		stderrLevel = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: stderrLevel}),
	}

	closer := func() error { return nil }

	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = func() error { return f.Close() }
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	return logger, closer, nil
}

// Discard returns a logger that drops every record, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
