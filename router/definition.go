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
	"regexp"
	"strings"
)

// HandlerFunc handles one dispatched request. The Context carries the
// request, the response sink, the parsed URL, the ordered match records,
// and a logger; the handler owns status, headers, body, and completion.
type HandlerFunc func(*Context)

// Handlers maps a lowercase HTTP method name to a handler. The "*" key is
// a wildcard applied when no exact method match exists.
type Handlers map[string]HandlerFunc

// entry is one (pattern, target) pair in a definition. Exactly one of
// template or raw identifies the pattern, and exactly one of handlers or
// sub identifies the target; the constructor methods enforce both, so no
// runtime shape checking is needed at build time.
type entry struct {
	template string
	raw      *regexp.Regexp
	handlers Handlers
	sub      *Definition
}

// Definition is an ordered sequence of (pattern, target) pairs. Later
// entries with an identical pattern do not overwrite earlier ones.
//
// Definitions are consumed once, by the tree builder; they are plain data
// with no matching behavior of their own.
type Definition struct {
	entries []entry
}

// NewDefinition creates an empty route definition.
func NewDefinition() *Definition {
	return &Definition{}
}

// Route appends a path-template route with a handler set. Method names in
// the set are normalized to lowercase.
func (d *Definition) Route(template string, handlers Handlers) *Definition {
	d.entries = append(d.entries, entry{
		template: template,
		handlers: normalizeHandlers(handlers),
	})
	return d
}

// Mount appends a nested definition under a path template. The nested
// definition's route keys are prefixed with the template so telemetry
// reflects full effective paths.
func (d *Definition) Mount(template string, sub *Definition) *Definition {
	d.entries = append(d.entries, entry{
		template: template,
		sub:      sub,
	})
	return d
}

// RouteRegexp appends a raw regular-expression route. The expression is
// matched against the rejoined remainder of the request path, consuming
// it entirely on success.
//
// When the expression also matches the empty string it is attached as the
// definition's own handler set rather than as a child edge; a sibling
// literal route at the same node then always wins for non-empty
// remainders, and the regex handlers serve only the exact-prefix case.
func (d *Definition) RouteRegexp(re *regexp.Regexp, handlers Handlers) *Definition {
	d.entries = append(d.entries, entry{
		raw:      re,
		handlers: normalizeHandlers(handlers),
	})
	return d
}

// normalizeHandlers copies a handler set with lowercase method keys.
func normalizeHandlers(handlers Handlers) Handlers {
	normalized := make(Handlers, len(handlers))
	for method, h := range handlers {
		normalized[strings.ToLower(method)] = h
	}
	return normalized
}
