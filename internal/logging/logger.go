// Package logging builds the process logger on top of log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New creates a logger writing to w. An empty or unknown level means INFO and
// anything but "json" means text output. A nil writer means stderr.
//
// The level parameter controls which messages are logged:
//   - DEBUG: All messages, including per-event delivery
//   - INFO: Session lifecycle and connections
//   - WARN: Dropped clients and rate limiting
//   - ERROR: Only failures
func New(w io.Writer, level, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level, defaulting to INFO
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
