// Package logging configures the process-wide slog default logger.
// Grounded directly on the teacher's
// internal/utils.ConfigureDefaultLogger: same level-name switch and
// stdout-vs-file handler choice, narrowed to this module's ambient
// needs (no OPUS/WebRTC-specific config to thread through).
package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
)

// Configure sets the process-wide default slog logger. level is one
// of "none", "error", "warn", "info", "debug". If file is empty, logs
// go to stdout as text; otherwise they go to file as JSON. Returns the
// opened file (nil if none), which the caller should Close on
// shutdown.
func Configure(level string, file string, opts slog.HandlerOptions) (*os.File, error) {
	switch level {
	case "none":
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return nil, nil
	case "error":
		opts.Level = slog.LevelError
	case "warn":
		opts.Level = slog.LevelWarn
	case "info":
		opts.Level = slog.LevelInfo
	case "debug":
		opts.Level = slog.LevelDebug
	default:
		return nil, errors.New("musac: unexpected log level")
	}

	if file == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &opts)))
		return nil, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &opts)))
	return f, nil
}
