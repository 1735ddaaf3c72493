package app

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger. LOG_FORMAT selects JSON (production
// collectors) or text; LOG_LEVEL gates verbosity. Source locations are
// attached only at debug level to keep authorization-denial logs compact.
func NewLogger(cfg *Config) *slog.Logger {
	level := parseLevel(cfg)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLevel(cfg *Config) slog.Level {
	if cfg == nil {
		return slog.LevelInfo
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
