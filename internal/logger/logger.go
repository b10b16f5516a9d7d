// Package logger wraps zerolog behind the small facade the rest of the
// engine depends on, so call sites never import zerolog directly.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Options configures a Logger.
type Options struct {
	Level         string // debug, info, warn, error
	HumanReadable bool
	Writer        io.Writer
}

// Logger is a structured, leveled logger with attachable fields.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger from Options. An empty Options yields an info-level
// JSON logger writing to stderr.
func New(opts Options) *Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if opts.HumanReadable {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(opts.Level); err == nil && opts.Level != "" {
		level = parsed
	}

	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// With returns a child Logger carrying the given key/value pairs on every
// subsequent entry. fields must be an even-length list of alternating keys
// and values.
func (l *Logger) With(fields ...any) *Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }

// Error logs msg with err attached under the "error" field.
func (l *Logger) Error(err error, msg string) {
	l.zl.Error().Err(err).Msg(msg)
}

// Nop returns a Logger that discards everything, for tests.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}
