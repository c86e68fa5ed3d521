// Package xlog is a thin wrapper over log/slog giving the manager and its
// adapters a single place to attach structured fields (type pair,
// configuration name) without every call site repeating them.
package xlog

import (
	"log/slog"
	"os"
)

// Logger wraps an *slog.Logger with a fixed set of "with" fields already
// attached.
type Logger struct {
	base *slog.Logger
}

// Default returns a Logger over slog's default handler, writing to stderr
// at Info level.
func Default() *Logger {
	return &Logger{base: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))}
}

// New wraps an existing *slog.Logger.
func New(base *slog.Logger) *Logger {
	if base == nil {
		return Default()
	}
	return &Logger{base: base}
}

// With returns a Logger with additional structured fields attached to every
// subsequent call.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{base: l.base.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) {
	if l == nil {
		return
	}
	l.base.Debug(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	if l == nil {
		return
	}
	l.base.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		return
	}
	l.base.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	if l == nil {
		return
	}
	l.base.Error(msg, args...)
}
