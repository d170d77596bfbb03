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

package router

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentKind classifies one compiled template segment.
type segmentKind uint8

const (
	segLiteral segmentKind = iota // exact string equality
	segNamed                      // single segment, captured under a name
	segSplat                      // remainder of the path, captured as one string
)

// defaultSegmentPattern matches one or more of any character. It is the
// capture pattern used when a parameter carries no explicit constraint.
const defaultSegmentPattern = ".+"

// defaultCaptureName is used when a parameter expression has an empty
// name part, as in "{}" or "{*}".
const defaultCaptureName = "segment"

// segment is one compiled matcher from a path template.
type segment struct {
	kind    segmentKind
	literal string         // matched text for segLiteral
	name    string         // capture name for segNamed and segSplat
	pattern *regexp.Regexp // anchored matcher for segNamed and segSplat
}

// splitPath splits a template or request path on '/' into raw segments.
// A backslash escapes the next character, so an escaped "\/" stays inside
// its segment instead of splitting it. Empty segments (leading, trailing,
// or doubled slashes) are dropped. The same splitter serves templates and
// request paths so escaping rules are shared between them.
func splitPath(path string) []string {
	var segments []string
	var b strings.Builder

	flush := func() {
		if b.Len() > 0 {
			segments = append(segments, b.String())
			b.Reset()
		}
	}

	escaped := false
	for _, r := range path {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '/':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	if escaped {
		// Trailing bare backslash is kept literally.
		b.WriteByte('\\')
	}
	flush()

	return segments
}

// compileTemplate turns a path template into its ordered segment matchers.
//
// A "{...}" expression is split on the first ':' into a name part and an
// optional regex part. A name part ending in '*' marks a splat and the
// '*' is stripped; an empty name part defaults to "segment". The capture
// pattern is compiled anchored as ^(?P<name>regex)$ with ".+" standing in
// when no regex is given. A pattern that fails to compile makes the whole
// template invalid; callers drop the route entry and keep building.
//
// A splat is terminal: segments written after it in the template can
// never match and compilation rejects them outright so the mistake is
// caught at build time.
func compileTemplate(template string) ([]segment, error) {
	raw := splitPath(template)
	segments := make([]segment, 0, len(raw))

	for i, text := range raw {
		if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
			segments = append(segments, segment{kind: segLiteral, literal: text})
			continue
		}

		expr := text[1 : len(text)-1]
		namePart := expr
		regexPart := defaultSegmentPattern
		if idx := strings.Index(expr, ":"); idx >= 0 {
			namePart = expr[:idx]
			if rest := expr[idx+1:]; rest != "" {
				regexPart = rest
			}
		}

		kind := segNamed
		if strings.HasSuffix(namePart, "*") {
			kind = segSplat
			namePart = strings.TrimSuffix(namePart, "*")
		}
		if namePart == "" {
			namePart = defaultCaptureName
		}

		pattern, err := regexp.Compile("^(?P<" + namePart + ">" + regexPart + ")$")
		if err != nil {
			return nil, fmt.Errorf("segment %q: %w", text, err)
		}

		if kind == segSplat && i != len(raw)-1 {
			return nil, fmt.Errorf("segment %q: splat must be the last segment", text)
		}

		segments = append(segments, segment{
			kind:    kind,
			name:    namePart,
			pattern: pattern,
		})
	}

	return segments, nil
}
