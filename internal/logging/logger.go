// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging provides the leveled structured logger used by the CLI
// and the HTTP surface. Progress output for humans stays on the command's
// writer; diagnostics go through this logger on stderr.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pdiddy/datalabel/pkg/types"
)

// Logger wraps slog. A nil *Logger discards everything.
type Logger struct {
	logger *slog.Logger
}

// New creates a logger writing to w (stderr when nil) at the configured
// level and format.
func New(cfg types.LogConfig, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{logger: slog.New(handler)}
}

// Nop returns a logger that discards all output.
func Nop() *Logger {
	return &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel maps debug, info, warn, and error to slog levels. Anything
// else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{logger: l.logger.With(args...)}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	if l != nil {
		l.logger.Debug(msg, args...)
	}
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	if l != nil {
		l.logger.Info(msg, args...)
	}
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	if l != nil {
		l.logger.Warn(msg, args...)
	}
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	if l != nil {
		l.logger.Error(msg, args...)
	}
}
