package observability

import (
	"log/slog"
	"os"
	"strings"
)

// LoggingConfig carries the two knobs config.Config exposes for logging, kept
// as its own small interface so this package doesn't import config.
type LoggingConfig interface {
	LogLevelName() string
	LogFormatName() string
}

// NewLogger builds the process-wide structured logger. Format "text"
// (case-insensitive) uses slog's text handler, useful for local runs; any
// other value, including the production default "json", uses the JSON
// handler.
func NewLogger(cfg LoggingConfig) *slog.Logger {
	level := parseLevel(cfg.LogLevelName())
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormatName(), "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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
