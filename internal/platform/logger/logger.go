package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON output so audit-tagged
// log lines stay machine-parseable downstream.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
