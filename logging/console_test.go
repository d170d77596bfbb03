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
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var consoleLinePattern = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\.\d{3}\] [A-Z]+ *(\(\w+\))?: `)

func newConsoleTestLogger(t *testing.T, color bool) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := MustNew(
		WithConsoleHandler(),
		WithOutput(buf),
		WithLevel(LevelTrace),
		WithColor(color),
	)
	return logger, buf
}

func TestConsoleLineFormat(t *testing.T) {
	logger, buf := newConsoleTestLogger(t, false)

	logger.Info("server listening", "address", "localhost:8080")

	line := buf.String()
	assert.Regexp(t, consoleLinePattern, line)
	assert.Contains(t, line, "INFO")
	assert.Contains(t, line, ": server listening")
	assert.Contains(t, line, "address=localhost:8080")
	assert.True(t, line[len(line)-1] == '\n')
}

func TestConsoleEventTag(t *testing.T) {
	logger, buf := newConsoleTestLogger(t, false)

	logger.Info("request completed", "event", "request", "method", "GET")

	line := buf.String()
	assert.Contains(t, line, "(request):")
	// The event attribute moves into the tag, never trailing key=value.
	assert.NotContains(t, line, "event=request")
	assert.Contains(t, line, "method=GET")
}

func TestConsoleColorDisabledHasNoANSI(t *testing.T) {
	logger, buf := newConsoleTestLogger(t, false)

	logger.Error("boom", "status", 500, "duration", 2*time.Second)

	assert.NotContains(t, buf.String(), "\033[")
}

func TestConsoleColorEnabledWrapsLevel(t *testing.T) {
	logger, buf := newConsoleTestLogger(t, true)

	logger.Error("boom")

	out := buf.String()
	assert.Contains(t, out, colorRed)
	assert.Contains(t, out, colorReset)
}

func TestConsoleLevelColors(t *testing.T) {
	tests := []struct {
		name  string
		log   func(l *Logger)
		color string
	}{
		{name: "trace is gray", log: func(l *Logger) { l.Trace("m") }, color: colorGray},
		{name: "debug is blue", log: func(l *Logger) { l.Debug("m") }, color: colorBlue},
		{name: "info is green", log: func(l *Logger) { l.Info("m") }, color: colorGreen},
		{name: "warn is yellow", log: func(l *Logger) { l.Warn("m") }, color: colorYellow},
		{name: "error is red", log: func(l *Logger) { l.Error("m") }, color: colorRed},
		{name: "fatal is red", log: func(l *Logger) { l.Fatal("m") }, color: colorRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newConsoleTestLogger(t, true)
			tt.log(logger)
			assert.Contains(t, buf.String(), tt.color)
		})
	}
}

func TestConsoleStatusColorization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		color  string
	}{
		{name: "success is green", status: 200, color: colorGreen},
		{name: "redirect is green", status: 302, color: colorGreen},
		{name: "client error is yellow", status: 404, color: colorYellow},
		{name: "server error is red", status: 500, color: colorRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newConsoleTestLogger(t, true)
			logger.Info("request completed", "status", tt.status)
			assert.Contains(t, buf.String(), "status="+tt.color)
		})
	}
}

func TestConsoleDurationColorization(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		color    string
	}{
		{name: "fast is green", duration: 20 * time.Millisecond, color: colorGreen},
		{name: "slow is yellow", duration: 700 * time.Millisecond, color: colorYellow},
		{name: "very slow is red", duration: 2 * time.Second, color: colorRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newConsoleTestLogger(t, true)
			logger.Info("request completed", "duration", tt.duration)
			assert.Contains(t, buf.String(), "duration="+tt.color)
		})
	}
}

func TestConsoleBoundAttrsCarryThroughWith(t *testing.T) {
	logger, buf := newConsoleTestLogger(t, false)
	derived := logger.With("service", "orders", "event", "request")

	derived.Info("handled")

	line := buf.String()
	assert.Contains(t, line, "service=orders")
	assert.Contains(t, line, "(request):")
}

func TestConsoleCustomLevelTokens(t *testing.T) {
	logger, buf := newConsoleTestLogger(t, false)

	logger.Trace("low")
	logger.Fatal("high")

	out := buf.String()
	assert.Contains(t, out, "TRACE")
	assert.Contains(t, out, "FATAL")
	assert.NotContains(t, out, "DEBUG-4")
	assert.NotContains(t, out, "ERROR+4")
}

func TestStatusColorBoundaries(t *testing.T) {
	assert.Equal(t, colorGreen, statusColor(399))
	assert.Equal(t, colorYellow, statusColor(400))
	assert.Equal(t, colorYellow, statusColor(499))
	assert.Equal(t, colorRed, statusColor(500))
}

func TestDurationColorBoundaries(t *testing.T) {
	assert.Equal(t, colorGreen, durationColor(499*time.Millisecond))
	assert.Equal(t, colorYellow, durationColor(500*time.Millisecond))
	assert.Equal(t, colorYellow, durationColor(999*time.Millisecond))
	assert.Equal(t, colorRed, durationColor(time.Second))
}

func TestConsoleSingleWritePerEntry(t *testing.T) {
	var w countingWriter
	logger := MustNew(
		WithConsoleHandler(),
		WithOutput(&w),
		WithColor(false),
	)

	logger.Info("one", "k", "v")
	logger.Info("two")

	require.Equal(t, 2, w.calls)
}

type countingWriter struct {
	calls int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.calls++
	return len(p), nil
}
