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
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes.
const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorGray    = "\033[90m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
)

// consoleBuilderPool provides reusable [strings.Builder] instances for
// formatting console log entries.
var consoleBuilderPool = sync.Pool{
	New: func() any {
		return &strings.Builder{}
	},
}

// consoleHandler implements [slog.Handler] for human-readable output:
//
//	[15:04:05.000] INFO (request): message key=value ...
//
// The "event" attribute, when present, is rendered as the parenthesized
// tag rather than as a trailing key=value pair. Status codes and duration
// strings on request-completion lines are colorized by outcome.
//
// Thread-safe: safe for concurrent use by multiple goroutines. Each entry
// is written with a single Write call so concurrent entries do not
// interleave.
type consoleHandler struct {
	output io.Writer
	level  Level
	color  bool
	attrs  []slog.Attr
	groups []string
}

func newConsoleHandler(w io.Writer, level Level, color bool) *consoleHandler {
	return &consoleHandler{
		output: w,
		level:  level,
		color:  color,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes one log record.
func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	b := consoleBuilderPool.Get().(*strings.Builder)
	b.Reset()
	defer consoleBuilderPool.Put(b)

	// Timestamp, dimmed
	h.colorize(b, colorDim, "["+r.Time.Format("15:04:05.000")+"]")
	b.WriteString(" ")

	// Level token
	h.colorize(b, h.levelColor(r.Level)+colorBold, fmt.Sprintf("%-5s", levelName(r.Level)))

	// Event tag, pulled out of the attributes
	event, rest := splitEventAttr(h.attrs, r)
	if event != "" {
		b.WriteString(" ")
		h.colorize(b, colorMagenta, "("+event+")")
	}

	b.WriteString(": ")
	b.WriteString(r.Message)

	for _, a := range rest {
		b.WriteString(" ")
		h.appendAttr(b, a)
	}

	b.WriteString("\n")

	_, err := io.WriteString(h.output, b.String())
	return err
}

// WithAttrs returns a new handler with additional attributes.
func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	return &consoleHandler{
		output: h.output,
		level:  h.level,
		color:  h.color,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

// WithGroup returns a new handler with a group name.
func (h *consoleHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name
	return &consoleHandler{
		output: h.output,
		level:  h.level,
		color:  h.color,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// colorize writes s wrapped in the given ANSI sequence when colorization
// is active, or bare otherwise.
func (h *consoleHandler) colorize(b *strings.Builder, code, s string) {
	if !h.color {
		b.WriteString(s)
		return
	}
	b.WriteString(code)
	b.WriteString(s)
	b.WriteString(colorReset)
}

// levelColor returns the ANSI color code for a level token.
func (h *consoleHandler) levelColor(level slog.Level) string {
	switch {
	case level >= LevelError:
		return colorRed
	case level >= LevelWarn:
		return colorYellow
	case level >= LevelInfo:
		return colorGreen
	case level >= LevelDebug:
		return colorBlue
	default:
		return colorGray
	}
}

// splitEventAttr extracts the "event" attribute from the handler's bound
// attributes and the record, returning its value and the remaining
// attributes in order.
func splitEventAttr(bound []slog.Attr, r slog.Record) (string, []slog.Attr) {
	event := ""
	rest := make([]slog.Attr, 0, len(bound)+r.NumAttrs())
	for _, a := range bound {
		if a.Key == "event" && event == "" {
			event = a.Value.String()
			continue
		}
		rest = append(rest, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "event" && event == "" {
			event = a.Value.String()
			return true
		}
		rest = append(rest, a)
		return true
	})
	return event, rest
}

// appendAttr formats one attribute as key=value. Status codes and
// durations get outcome colors so request-completion lines scan quickly.
func (h *consoleHandler) appendAttr(b *strings.Builder, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}

	b.WriteString(a.Key)
	b.WriteString("=")

	if h.color {
		switch a.Key {
		case "status":
			if code, ok := attrInt(a.Value); ok {
				h.colorize(b, statusColor(code), strconv.Itoa(code))
				return
			}
		case "duration":
			if d, ok := attrDuration(a.Value); ok {
				h.colorize(b, durationColor(d), d.String())
				return
			}
		}
	}

	switch v := a.Value.Any().(type) {
	case string:
		b.WriteString(v)
	case int:
		b.WriteString(strconv.Itoa(v))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case uint64:
		b.WriteString(strconv.FormatUint(v, 10))
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case float64:
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	case time.Duration:
		b.WriteString(v.String())
	case time.Time:
		b.WriteString(v.Format(time.RFC3339))
	case error:
		b.WriteString(v.Error())
	default:
		b.WriteString(a.Value.String())
	}
}

// attrInt extracts an int from a slog value holding any integer kind.
func attrInt(v slog.Value) (int, bool) {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindInt64:
		return int(v.Int64()), true
	case slog.KindUint64:
		return int(v.Uint64()), true
	case slog.KindAny:
		if i, ok := v.Any().(int); ok {
			return i, true
		}
	}
	return 0, false
}

// attrDuration extracts a time.Duration from a slog value.
func attrDuration(v slog.Value) (time.Duration, bool) {
	v = v.Resolve()
	if v.Kind() == slog.KindDuration {
		return v.Duration(), true
	}
	if d, ok := v.Any().(time.Duration); ok {
		return d, true
	}
	return 0, false
}
