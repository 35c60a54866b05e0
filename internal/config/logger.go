package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func NewLogger(env string) *slog.Logger {
	return NewLoggerWithLevel(os.Stdout, env, "")
}

// NewLoggerWithLevel builds the process logger. level overrides the
// env-derived default when it names a known slog level.
func NewLoggerWithLevel(w io.Writer, env, level string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		AddSource: env == "development",
		Level:     slog.LevelDebug,
	}
	if env == "production" {
		opts.Level = slog.LevelInfo
	}

	if level != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err == nil {
			opts.Level = lvl
		}
	}

	if env == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
