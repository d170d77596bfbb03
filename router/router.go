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
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/trellis-dev/trellis/logging"
)

// Router dispatches HTTP requests against a compiled route tree. It
// implements [http.Handler].
//
// The tree is built once by [New] and never mutated afterward; there is
// no registration API on a live Router. Build it, start serving, done.
type Router struct {
	root    *node
	logger  *logging.Logger
	metrics *metricsSet
}

// Option is a functional option for configuring a Router.
type Option func(*Router)

// WithLogger injects the logger used by the tree builder, the request
// boundary, and every handler invocation.
func WithLogger(l *logging.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New compiles the definition into a route tree and returns a Router
// serving it. Entries with invalid templates are dropped with a warning
// rather than failing construction; a nil definition yields a router that
// answers 404 to everything.
func New(def *Definition, opts ...Option) (*Router, error) {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		// Routers are usable without wiring a logger, but stay quiet.
		r.logger = logging.MustNew(logging.WithJSONHandler(), logging.WithOutput(io.Discard))
	}

	if def == nil {
		def = NewDefinition()
	}
	r.root = buildTree(def, r.logger)

	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(def *Definition, opts ...Option) *Router {
	r, err := New(def, opts...)
	if err != nil {
		panic("router initialization failed: " + err.Error())
	}
	return r
}

// Routes returns the registered routes in tree order, for introspection
// and startup logging.
func (r *Router) Routes() []RouteInfo {
	var out []RouteInfo
	collectRoutes(r.root, &out)
	return out
}

// Dispatch resolves a method and path against the route tree without
// serving anything. It exists for tests and tooling; request traffic
// flows through [Router.ServeHTTP].
func (r *Router) Dispatch(method, path string) Match {
	return dispatch(r.root, method, path)
}

// ServeHTTP dispatches the request, invokes the selected handler, and
// contains every per-request failure at this boundary: one failing
// request must never affect others.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()

	rec := newResponseRecorder(w)
	m := dispatch(r.root, req.Method, req.URL.EscapedPath())

	if r.metrics != nil {
		r.metrics.inFlight.Inc()
		defer r.metrics.inFlight.Dec()
	}

	ctx := &Context{
		Request:   req,
		Response:  rec,
		URL:       req.URL,
		RouteKey:  m.RouteKey,
		Records:   m.Records,
		requestID: requestID,
		logger: logging.FromContext(req.Context(), r.logger).With(
			"request_id", requestID,
		),
	}

	defer func() {
		if v := recover(); v != nil {
			r.recoverHandler(ctx, rec, v)
		}
		r.finish(ctx, rec, m, start)
	}()

	switch {
	case m.Handler != nil:
		m.Handler(ctx)
	case m.Status == http.StatusNotAcceptable:
		r.fallback(ctx, http.StatusNotAcceptable, "method not acceptable")
	default:
		r.fallback(ctx, http.StatusNotFound, "not found")
	}
}

// fallback writes the response for a routing miss or method mismatch.
func (r *Router) fallback(c *Context, code int, message string) {
	if err := c.JSON(code, map[string]string{"error": message}); err != nil {
		c.logger.Error("failed to write fallback response", "error", err.Error())
	}
}

// recoverHandler contains a handler panic at the request boundary: the
// fault is logged with the route key when known, and a 500 is written
// unless a response has already begun, in which case the response is left
// untouched.
func (r *Router) recoverHandler(c *Context, rec *responseRecorder, v any) {
	c.logger.Error("handler panicked",
		"event", "panic",
		"route", c.RouteKey,
		"error", fmt.Sprint(v),
	)

	if rec.started {
		return
	}
	if err := c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	}); err != nil {
		c.logger.Error("failed to write error response", "error", err.Error())
	}
}

// finish emits the request-completion log line and metrics.
func (r *Router) finish(c *Context, rec *responseRecorder, m Match, start time.Time) {
	duration := time.Since(start)

	routeKey := m.RouteKey
	if routeKey == "" {
		routeKey = "_unmatched"
	}

	c.logger.Info("request completed",
		"event", "request",
		"method", c.Request.Method,
		"path", c.URL.Path,
		"route", routeKey,
		"status", rec.status,
		"duration", duration,
		"bytes", rec.bytes,
	)

	if r.metrics != nil {
		status := strconv.Itoa(rec.status)
		r.metrics.requests.WithLabelValues(c.Request.Method, routeKey, status).Inc()
		r.metrics.duration.WithLabelValues(c.Request.Method, routeKey).Observe(duration.Seconds())
	}
}
