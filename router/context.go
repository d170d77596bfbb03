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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/trellis-dev/trellis/logging"
)

// Context carries everything a handler receives for one request: the
// request object, the response sink, the parsed URL, the ordered match
// records, the originating route key, and a logger scoped to the request.
type Context struct {
	Request  *http.Request
	Response http.ResponseWriter
	URL      *url.URL
	RouteKey string
	Records  []MatchRecord

	logger    *logging.Logger
	requestID string
}

// Logger returns the request-scoped logger. It carries the request ID and
// any trace correlation attributes.
func (c *Context) Logger() *logging.Logger { return c.logger }

// RequestID returns the identifier attached to this request's log lines.
func (c *Context) RequestID() string { return c.requestID }

// Param returns the first named capture for name across the match
// records, or "" when absent.
func (c *Context) Param(name string) string {
	for i := range c.Records {
		if v, ok := c.Records[i].Params[name]; ok {
			return v
		}
	}
	return ""
}

// Status writes the response header with the given status code and no
// body.
func (c *Context) Status(code int) {
	c.Response.WriteHeader(code)
}

// JSON writes a JSON response with the given status code.
func (c *Context) JSON(code int, v any) error {
	c.Response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.Response.WriteHeader(code)
	return json.NewEncoder(c.Response).Encode(v)
}

// String writes a plain-text response with the given status code.
func (c *Context) String(code int, s string) error {
	c.Response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.Response.WriteHeader(code)
	_, err := fmt.Fprint(c.Response, s)
	return err
}

// responseRecorder wraps the response writer to observe the status code
// and whether a response has begun, so the request boundary can decide if
// an error response may still be written.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	started bool
	bytes   int64
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *responseRecorder) WriteHeader(code int) {
	if !r.started {
		r.status = code
		r.started = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if !r.started {
		r.started = true
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += int64(n)
	return n, err
}

// Flush forwards to the underlying writer when it supports streaming.
func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
