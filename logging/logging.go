// Copyright 2026 The Trellis Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// HandlerType represents the render strategy for log entries.
type HandlerType string

const (
	// JSONHandler outputs one structured JSON object per entry.
	JSONHandler HandlerType = "json"
	// ConsoleHandler outputs human-readable, optionally colored lines.
	ConsoleHandler HandlerType = "console"
)

// Level represents log severity. Levels are totally ordered:
// Trace < Debug < Info < Warn < Error < Fatal.
type Level = slog.Level

const (
	// LevelTrace is below slog's Debug level.
	LevelTrace Level = slog.LevelDebug - 4
	LevelDebug       = slog.LevelDebug
	LevelInfo        = slog.LevelInfo
	LevelWarn        = slog.LevelWarn
	LevelError       = slog.LevelError
	// LevelFatal is above slog's Error level. Logging at Fatal does not
	// terminate the process; that is the shutdown coordinator's job.
	LevelFatal Level = slog.LevelError + 4
)

// Package-level cached context reused across log calls. It is immutable
// and safe for concurrent use; slog requires a context but the logger
// does not use it for cancellation.
var bgCtx = context.Background()

// ParseLevel converts a level name ("trace" through "fatal") to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
}

// levelName returns the canonical token for a level, including the two
// custom levels slog does not know about.
func levelName(l Level) string {
	switch {
	case l <= LevelTrace:
		return "TRACE"
	case l >= LevelFatal:
		return "FATAL"
	default:
		return l.String()
	}
}

// Logger is an explicit leveled structured logger.
//
// A Logger is constructed once from configuration and passed by reference
// into every component that needs it. All methods are safe for concurrent
// use; every accepted entry is written synchronously, one line per entry,
// with no buffering or reordering.
type Logger struct {
	handlerType HandlerType
	output      io.Writer
	level       Level
	serviceName string
	color       colorMode

	slogger *slog.Logger
}

// colorMode controls ANSI colorization of console output.
type colorMode int8

const (
	colorAuto colorMode = iota // TTY detection plus NO_COLOR opt-out
	colorOn
	colorOff
)

// Option is a functional option for configuring a Logger.
type Option func(*Logger)

// WithHandlerType sets the render strategy.
func WithHandlerType(t HandlerType) Option {
	return func(l *Logger) { l.handlerType = t }
}

// WithJSONHandler selects JSON rendering.
func WithJSONHandler() Option { return WithHandlerType(JSONHandler) }

// WithConsoleHandler selects human-readable console rendering.
func WithConsoleHandler() Option { return WithHandlerType(ConsoleHandler) }

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) { l.output = w }
}

// WithLevel sets the minimum level. Entries below it are no-ops.
func WithLevel(level Level) Option {
	return func(l *Logger) { l.level = level }
}

// WithServiceName attaches a service name to every entry.
func WithServiceName(name string) Option {
	return func(l *Logger) {
		if name != "" {
			l.serviceName = name
		}
	}
}

// WithColor forces colorization on or off, overriding TTY detection and
// the NO_COLOR environment variable.
func WithColor(enabled bool) Option {
	return func(l *Logger) {
		if enabled {
			l.color = colorOn
		} else {
			l.color = colorOff
		}
	}
}

// defaultLogger returns the default configuration: JSON when output is
// non-interactive, console when it is a terminal.
func defaultLogger() *Logger {
	l := &Logger{
		handlerType: JSONHandler,
		output:      os.Stdout,
		level:       LevelInfo,
		color:       colorAuto,
	}
	if writerIsTerminal(os.Stdout) {
		l.handlerType = ConsoleHandler
	}
	return l
}

// writerIsTerminal reports whether w is an interactive terminal.
func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// New creates a Logger from the given options.
func New(opts ...Option) (*Logger, error) {
	l := defaultLogger()
	for _, opt := range opts {
		opt(l)
	}

	if l.output == nil {
		return nil, ErrNilOutput
	}

	handler, err := l.buildHandler()
	if err != nil {
		return nil, err
	}

	l.slogger = slog.New(handler)
	if l.serviceName != "" {
		l.slogger = l.slogger.With("service", l.serviceName)
	}
	return l, nil
}

// MustNew creates a Logger or panics on configuration error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("logging initialization failed: " + err.Error())
	}
	return l
}

// buildHandler constructs the slog handler for the configured strategy.
func (l *Logger) buildHandler() (slog.Handler, error) {
	switch l.handlerType {
	case JSONHandler:
		return slog.NewJSONHandler(l.output, &slog.HandlerOptions{
			Level:       l.level,
			ReplaceAttr: renameCustomLevels,
		}), nil
	case ConsoleHandler:
		return newConsoleHandler(l.output, l.level, l.colorEnabled()), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidHandler, l.handlerType)
}

// colorEnabled resolves the colorization flag from the render strategy,
// TTY capability, and the NO_COLOR opt-out.
func (l *Logger) colorEnabled() bool {
	switch l.color {
	case colorOn:
		return true
	case colorOff:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return writerIsTerminal(l.output)
}

// renameCustomLevels rewrites slog's synthetic names for the two custom
// levels ("DEBUG-4", "ERROR+4") to their canonical tokens.
func renameCustomLevels(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(levelName(level))
		}
	}
	return a
}

// Level returns the configured minimum level.
func (l *Logger) Level() Level { return l.level }

// HandlerType returns the configured render strategy.
func (l *Logger) HandlerType() HandlerType { return l.handlerType }

// Enabled reports whether entries at the given level would be rendered.
func (l *Logger) Enabled(level Level) bool {
	return l.slogger.Enabled(bgCtx, level)
}

// Log renders one entry at the given level. Below-minimum levels are
// no-ops. Args are alternating key/value pairs in slog convention.
func (l *Logger) Log(level Level, msg string, args ...any) {
	if !l.slogger.Enabled(bgCtx, level) {
		return
	}
	l.slogger.Log(bgCtx, level, msg, args...)
}

// Logf renders one entry with a printf-formatted message.
func (l *Logger) Logf(level Level, format string, formatArgs ...any) {
	if !l.slogger.Enabled(bgCtx, level) {
		return
	}
	l.slogger.Log(bgCtx, level, fmt.Sprintf(format, formatArgs...))
}

// Trace logs at trace level.
func (l *Logger) Trace(msg string, args ...any) { l.Log(LevelTrace, msg, args...) }

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) { l.Log(LevelDebug, msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { l.Log(LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) { l.Log(LevelWarn, msg, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) { l.Log(LevelError, msg, args...) }

// Fatal logs at fatal level. It does not terminate the process.
func (l *Logger) Fatal(msg string, args ...any) { l.Log(LevelFatal, msg, args...) }

// With returns a derived Logger carrying additional attributes on every
// entry. The original Logger is unchanged.
func (l *Logger) With(args ...any) *Logger {
	derived := *l
	derived.slogger = l.slogger.With(args...)
	return &derived
}

// Slog exposes the underlying slog.Logger for interoperation with code
// that expects one.
func (l *Logger) Slog() *slog.Logger { return l.slogger }

// LogDuration logs an operation's elapsed time at info level, with both a
// millisecond count for filtering and a human-readable string.
func (l *Logger) LogDuration(msg string, start time.Time, extra ...any) {
	duration := time.Since(start)
	args := make([]any, 0, len(extra)+4)
	args = append(args,
		"duration_ms", duration.Milliseconds(),
		"duration", duration.String(),
	)
	args = append(args, extra...)
	l.Info(msg, args...)
}
