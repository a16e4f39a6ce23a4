// Package logging backs orchestrator.Logger with log/slog.
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/lokutor-ai/hypercheap-voice-agent/pkg/orchestrator"
)

// slogAdapter implements orchestrator.Logger over a *slog.Logger. The
// teacher's Logger interface already has slog's (msg string, args ...any)
// shape, so this is a thin pass-through rather than a translation layer.
type slogAdapter struct {
	l *slog.Logger
}

// New returns an orchestrator.Logger backed by a JSON slog.Logger writing to
// stderr at the given level ("debug", "info", "warn", "error"; defaults to
// "info" for unrecognized values).
func New(level string) orchestrator.Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(level)})
	return &slogAdapter{l: slog.New(h)}
}

func parseLevel(level string) slog.Level {
	switch level {
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

func (a *slogAdapter) Debug(msg string, args ...interface{}) {
	a.l.DebugContext(context.Background(), msg, args...)
}

func (a *slogAdapter) Info(msg string, args ...interface{}) {
	a.l.InfoContext(context.Background(), msg, args...)
}

func (a *slogAdapter) Warn(msg string, args ...interface{}) {
	a.l.WarnContext(context.Background(), msg, args...)
}

func (a *slogAdapter) Error(msg string, args ...interface{}) {
	a.l.ErrorContext(context.Background(), msg, args...)
}
