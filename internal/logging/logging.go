// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/lepinkainen/humanlog"
)

// ParseLevel maps debug|info|warn|error (any case) to a slog level. Unknown
// values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a human-readable logger writing to w.
func New(w io.Writer, level string) *slog.Logger {
	handler := humanlog.NewHandler(w, &humanlog.Options{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// Init installs a logger as the slog default and returns it.
func Init(w io.Writer, level string) *slog.Logger {
	logger := New(w, level)
	slog.SetDefault(logger)
	return logger
}
