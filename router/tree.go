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
	"sort"

	"github.com/trellis-dev/trellis/logging"
)

// matchOptions fix how the edge into a node is matched at dispatch time.
// They are set when the edge is created and never change.
type matchOptions struct {
	// matchToEnd compares against the rejoined remainder of the path
	// instead of a single segment, completing the walk on success.
	matchToEnd bool
	// matchAsLiteralString compares by exact string equality against
	// edgeKey, capturing nothing.
	matchAsLiteralString bool
}

// node is one node in the route tree. Each node carries the matcher for
// the edge leading into it (edgeKey for literal edges, pattern otherwise)
// plus the node-level attributes: an optional handler set, the match
// options fixed at build time, and the originating route key for
// telemetry. Intermediate nodes may hold children only, handlers only, or
// both — a prefix route and an extension route coexist.
//
// Thread safety: trees are built once, before serving, and are read-only
// afterward. Concurrent dispatch requires no locking.
type node struct {
	edgeKey string
	pattern *regexp.Regexp
	opts    matchOptions

	children []*node
	handlers Handlers
	routeKey string
}

// buildTree compiles a route definition into an immutable matching tree.
// Entries whose templates fail to compile are dropped with a warning;
// construction never fails outright, so one bad route cannot prevent the
// server from booting.
func buildTree(def *Definition, logger *logging.Logger) *node {
	root := &node{}
	buildInto(root, def, "", logger)
	return root
}

// buildInto inserts a definition's entries below n. Raw-regex entries are
// processed first, then template entries in insertion order; prefix
// accumulates the parent path for nested definitions' route keys.
func buildInto(n *node, def *Definition, prefix string, logger *logging.Logger) {
	for i := range def.entries {
		if def.entries[i].raw != nil {
			insertRaw(n, &def.entries[i], prefix)
		}
	}
	for i := range def.entries {
		if def.entries[i].raw == nil {
			insertTemplate(n, &def.entries[i], prefix, logger)
		}
	}
}

// insertRaw inserts a raw regular-expression entry. An expression that
// matches the empty string becomes a direct handler attachment on the
// current node; any other expression becomes a match-to-end child edge.
func insertRaw(n *node, e *entry, prefix string) {
	routeKey := joinRouteKey(prefix, e.raw.String())

	if e.raw.MatchString("") {
		if n.handlers == nil {
			n.handlers = e.handlers
			n.routeKey = routeKey
		}
		return
	}

	for _, child := range n.children {
		if child.pattern != nil && child.opts.matchToEnd &&
			child.pattern.String() == e.raw.String() {
			if child.handlers == nil {
				child.handlers = e.handlers
				child.routeKey = routeKey
			}
			return
		}
	}

	n.children = append(n.children, &node{
		pattern:  e.raw,
		opts:     matchOptions{matchToEnd: true},
		handlers: e.handlers,
		routeKey: routeKey,
	})
}

// insertTemplate compiles a template entry and inserts it edge by edge,
// descending or creating nodes as needed. A template that fails to
// compile drops the entry with a warning and contributes no tree edge.
func insertTemplate(n *node, e *entry, prefix string, logger *logging.Logger) {
	segments, err := compileTemplate(e.template)
	if err != nil {
		logger.Warn("dropping route with invalid template",
			"template", joinRouteKey(prefix, e.template),
			"error", err.Error(),
		)
		return
	}

	current := n
	for _, seg := range segments {
		current = current.findOrCreateChild(seg)
	}

	routeKey := joinRouteKey(prefix, e.template)
	if e.sub != nil {
		buildInto(current, e.sub, routeKey, logger)
		return
	}
	if current.handlers == nil {
		current.handlers = e.handlers
		current.routeKey = routeKey
	}
}

// findOrCreateChild returns the child matching the compiled segment,
// creating it when absent. Children are scanned and appended in insertion
// order, which is also dispatch order.
func (n *node) findOrCreateChild(seg segment) *node {
	opts := optionsFor(seg)
	for _, child := range n.children {
		if child.opts != opts {
			continue
		}
		if seg.kind == segLiteral {
			if child.edgeKey == seg.literal {
				return child
			}
			continue
		}
		if child.pattern != nil && child.pattern.String() == seg.pattern.String() {
			return child
		}
	}

	child := &node{opts: opts}
	if seg.kind == segLiteral {
		child.edgeKey = seg.literal
	} else {
		child.pattern = seg.pattern
	}
	n.children = append(n.children, child)
	return child
}

// optionsFor maps a segment kind to its fixed match options: literal
// edges compare as strings, named edges match one segment by regex, and
// splat edges consume the remainder.
func optionsFor(seg segment) matchOptions {
	switch seg.kind {
	case segLiteral:
		return matchOptions{matchAsLiteralString: true}
	case segSplat:
		return matchOptions{matchToEnd: true}
	default:
		return matchOptions{}
	}
}

// joinRouteKey prefixes a pattern with its parent path, normalizing the
// separating slash.
func joinRouteKey(prefix, pattern string) string {
	if prefix == "" {
		if pattern == "" {
			return "/"
		}
		return pattern
	}
	switch {
	case pattern == "" || pattern == "/":
		return prefix
	case pattern[0] == '/':
		return prefix + pattern
	default:
		return prefix + "/" + pattern
	}
}

// RouteInfo describes one registered route for introspection.
type RouteInfo struct {
	Key     string   // originating template or regex, with parent prefixes
	Methods []string // sorted lowercase method names, "*" included
}

// collectRoutes walks the tree gathering every node holding handlers.
func collectRoutes(n *node, out *[]RouteInfo) {
	if n.handlers != nil {
		methods := make([]string, 0, len(n.handlers))
		for m := range n.handlers {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		*out = append(*out, RouteInfo{Key: n.routeKey, Methods: methods})
	}
	for _, child := range n.children {
		collectRoutes(child, out)
	}
}
