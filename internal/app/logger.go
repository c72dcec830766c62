package app

import (
	"log/slog"
	"os"
	"strings"

	"github.com/questforge/questforge/internal/config"
)

// NewLogger builds the process-wide *slog.Logger from LogConfig and
// installs it as the slog default. Format "json" is meant for
// production; anything else falls back to a text handler with source
// locations for local development. Output always goes to stderr.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		opts.AddSource = true
		h = slog.NewTextHandler(os.Stderr, opts)
	}

	log := slog.New(h)
	slog.SetDefault(log)
	return log
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}
