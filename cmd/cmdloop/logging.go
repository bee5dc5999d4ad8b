package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

func loggerFromViper(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(viper.GetString("logging.level"))}
	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(viper.GetString("logging.format"))) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
