package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New creates a *slog.Logger writing to stderr and optionally to logFile.
// format "text" gives colored console output; anything else gives JSON.
// A log file always receives JSON. The logger becomes the slog default. The
// returned cleanup func closes the log file if one was opened; callers must
// defer it.
func New(level, format, logFile string) (*slog.Logger, func(), error) {
	lvl := parseLevel(level)

	var console slog.Handler
	if strings.EqualFold(format, "text") {
		console = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
		})
	} else {
		console = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}

	handler := console
	cleanup := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, err
		}
		handler = slog.NewMultiHandler(console, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: lvl}))
		cleanup = func() { _ = f.Close() }
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
