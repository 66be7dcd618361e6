// Package log provides leveled logging interface.
// The log messages are intended to be user-facing
// similar to the standard library's log package.
package log

import (
	"io"
	"log/slog"

	"github.com/mattn/go-isatty"
)

// Level specifies the level of logging.
type Level = slog.Level

// Supported log levels.
const (
	Debug = slog.LevelDebug
	Info  = slog.LevelInfo
	Warn  = slog.LevelWarn
	Error = slog.LevelError
)

// Discard is a logger that discards all its operations.
var Discard = &Logger{slog.New(slog.DiscardHandler)}

// Logger is a user-facing logger.
type Logger struct{ *slog.Logger }

// New builds a logger that writes messages at or above the given level to
// the given writer.
//
// Output is colored if the writer is a terminal.
func New(w io.Writer, lvl Level) *Logger {
	log := slog.New(&handler{
		W:     w,
		Level: lvl,
		Color: isTerminal(w),
	})
	return &Logger{log}
}

// WithName builds a new logger with the provided name. The returned logger is
// safe to use concurrently with this logger.
func (l *Logger) WithName(name string) *Logger {
	out := *l
	out.Logger = l.Logger.WithGroup(name)
	return &out
}

// With builds a new logger that includes the given attributes in every
// message.
func (l *Logger) With(args ...any) *Logger {
	out := *l
	out.Logger = l.Logger.With(args...)
	return &out
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
