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
	"net/http"
	"net/url"
	"strings"
)

// MatchRecord is one per-segment match captured while descending the
// tree. Text is the matched subject (a single decoded segment, or the
// rejoined remainder for match-to-end edges); Params holds named captures
// when the edge's pattern declared any; Index is the segment position the
// match started at.
type MatchRecord struct {
	Text   string
	Params map[string]string
	Index  int
}

// Match is the outcome of dispatching a request path.
//
// On a successful dispatch Handler is non-nil and Status is zero. On
// failure Handler is nil and Status carries the fallback code: 404 when
// no handler set was reached, 406 when the path matched but neither the
// method nor the "*" wildcard did.
type Match struct {
	RouteKey string
	Records  []MatchRecord
	Handler  HandlerFunc
	Status   int
}

// Param returns the first named capture for name across the match
// records, or "" when absent.
func (m *Match) Param(name string) string {
	for i := range m.Records {
		if v, ok := m.Records[i].Params[name]; ok {
			return v
		}
	}
	return ""
}

// dispatch walks the tree for one request. The path is split with the
// same escaping rules as templates, then each raw segment is
// percent-decoded before matching; a segment that fails to decode is
// matched raw rather than failing the request.
//
// The walk tries each child of the current node in insertion order and
// descends into the first match. There is no backtracking across sibling
// subtrees: if no child matches the current segment, the records
// collected so far are discarded and the whole path fails.
func dispatch(root *node, method, path string) Match {
	segments := splitPath(path)
	for i, s := range segments {
		if decoded, err := url.PathUnescape(s); err == nil {
			segments[i] = decoded
		}
	}

	current := root
	records := make([]MatchRecord, 0, len(segments))
	complete := false

	for i := 0; i < len(segments) && !complete; i++ {
		matched := matchChild(current, segments, i, &records)
		if matched == nil {
			return Match{Status: http.StatusNotFound}
		}
		current = matched
		complete = matched.opts.matchToEnd
	}

	return selectHandler(current, method, records)
}

// matchChild scans n's children in insertion order for the first one
// matching the segment at index i, appending its match record on success.
func matchChild(n *node, segments []string, i int, records *[]MatchRecord) *node {
	for _, child := range n.children {
		subject := segments[i]
		if child.opts.matchToEnd {
			subject = strings.Join(segments[i:], "/")
		}

		if child.opts.matchAsLiteralString {
			if subject == child.edgeKey {
				*records = append(*records, MatchRecord{Text: subject, Index: i})
				return child
			}
			continue
		}

		m := child.pattern.FindStringSubmatch(subject)
		if m == nil {
			continue
		}

		record := MatchRecord{Text: subject, Index: i}
		names := child.pattern.SubexpNames()
		for gi, name := range names {
			if gi == 0 || name == "" || gi >= len(m) {
				continue
			}
			if record.Params == nil {
				record.Params = make(map[string]string, len(names)-1)
			}
			record.Params[name] = m[gi]
		}
		*records = append(*records, record)
		return child
	}
	return nil
}

// selectHandler resolves the handler for the node the walk ended on:
// the exact lowercase method, then the "*" wildcard, then a fallback
// status — 404 when the node holds no handler set at all, 406 when the
// path matched but the method did not.
func selectHandler(n *node, method string, records []MatchRecord) Match {
	if n.handlers == nil {
		return Match{Status: http.StatusNotFound}
	}

	h := n.handlers[strings.ToLower(method)]
	if h == nil {
		h = n.handlers["*"]
	}
	if h == nil {
		return Match{
			RouteKey: n.routeKey,
			Status:   http.StatusNotAcceptable,
		}
	}

	return Match{
		RouteKey: n.routeKey,
		Records:  records,
		Handler:  h,
	}
}
