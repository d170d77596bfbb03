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
	"bufio"
	"bytes"
	"encoding/json"
)

// NewTestLogger creates a trace-level JSON logger writing to an in-memory
// buffer, for asserting on log output in tests.
func NewTestLogger() (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := MustNew(
		WithJSONHandler(),
		WithOutput(buf),
		WithLevel(LevelTrace),
	)
	return logger, buf
}

// Entry is a parsed JSON log entry for test assertions.
type Entry struct {
	Level   string
	Message string
	Attrs   map[string]any
}

// ParseJSONEntries parses the JSON entries accumulated in buf without
// consuming it.
func ParseJSONEntries(buf *bytes.Buffer) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		var raw map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
			return nil, err
		}

		e := Entry{Attrs: make(map[string]any)}
		if msg, ok := raw["msg"].(string); ok {
			e.Message = msg
		}
		if level, ok := raw["level"].(string); ok {
			e.Level = level
		}
		for k, v := range raw {
			if k != "time" && k != "level" && k != "msg" {
				e.Attrs[k] = v
			}
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}
