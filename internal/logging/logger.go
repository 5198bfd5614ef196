// Package logging defines a minimal structured-logging interface used across
// the project together with slog and zerolog implementations.
package logging

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "login failed", "stage", stage, "reason", reason)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New builds the process logger. "console" gives a zerolog console writer,
// anything else a slog JSON handler. Debug output is enabled outside
// production.
func New(format, environment string, w io.Writer) Logger {
	production := environment == "production"

	if format == FormatConsole {
		level := zerolog.DebugLevel
		if production {
			level = zerolog.InfoLevel
		}
		out := zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    production,
		}
		zl := zerolog.New(out).Level(level).With().
			Timestamp().
			Str("env", environment).
			Logger()
		return NewZerologLogger(zl)
	}

	level := slog.LevelDebug
	if production {
		level = slog.LevelInfo
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h).With("env", environment))
}
