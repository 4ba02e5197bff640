// Package logger holds the process-wide structured logger. Diagnostics go to
// stderr so that stdout only ever carries documents.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(New(os.Stderr, false))
}

// New builds a text logger at Info level, or Debug level when debug is set.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func Set(l *slog.Logger) {
	current.Store(l)
}

// L returns the process logger.
func L() *slog.Logger {
	return current.Load()
}
