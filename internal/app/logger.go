package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/heartmarshall/vocab-harvester/internal/config"
)

// NewLogger creates a *slog.Logger from LogConfig and sets it as the
// default logger via slog.SetDefault.
//
// Format "json" produces structured JSON; anything else produces text.
// Level is one of debug, info, warn, error (case-insensitive), defaulting
// to info. Source locations are added at debug level only. A nil w means
// os.Stderr, which keeps stdout free for command output.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func parseLevel(s string) slog.Level {
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
