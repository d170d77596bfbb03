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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchLiteral(t *testing.T) {
	def := NewDefinition().
		Route("/users/all", Handlers{"get": noop})
	r := MustNew(def)

	m := r.Dispatch("GET", "/users/all")
	require.NotNil(t, m.Handler)
	assert.Equal(t, "/users/all", m.RouteKey)
	assert.Equal(t, 0, m.Status)

	assert.Equal(t, http.StatusNotFound, r.Dispatch("GET", "/users/one").Status)
	assert.Equal(t, http.StatusNotFound, r.Dispatch("GET", "/users").Status)
	assert.Equal(t, http.StatusNotFound, r.Dispatch("GET", "/users/all/extra").Status)
}

func TestDispatchNamedParam(t *testing.T) {
	def := NewDefinition().
		Route("/users/{id}", Handlers{"get": noop})
	r := MustNew(def)

	m := r.Dispatch("GET", "/users/42")
	require.NotNil(t, m.Handler)
	assert.Equal(t, "42", m.Param("id"))

	require.Len(t, m.Records, 2)
	assert.Equal(t, "users", m.Records[0].Text)
	assert.Equal(t, 0, m.Records[0].Index)
	assert.Equal(t, "42", m.Records[1].Text)
	assert.Equal(t, 1, m.Records[1].Index)
	assert.Equal(t, map[string]string{"id": "42"}, m.Records[1].Params)
}

func TestDispatchConstrainedParam(t *testing.T) {
	def := NewDefinition().
		Route("/machines/{id:[a-z]+}", Handlers{"get": noop})
	r := MustNew(def)

	m := r.Dispatch("GET", "/machines/mars")
	require.NotNil(t, m.Handler)
	assert.Equal(t, "mars", m.Param("id"))

	// A numeric segment fails the constraint outright.
	assert.Equal(t, http.StatusNotFound, r.Dispatch("GET", "/machines/42").Status)
}

func TestDispatchSplat(t *testing.T) {
	def := NewDefinition().
		Route("/files/{path*}", Handlers{"get": noop})
	r := MustNew(def)

	m := r.Dispatch("GET", "/files/a/b/c.txt")
	require.NotNil(t, m.Handler)
	assert.Equal(t, "a/b/c.txt", m.Param("path"))

	// A splat needs at least one segment to consume.
	assert.Equal(t, http.StatusNotFound, r.Dispatch("GET", "/files").Status)
}

func TestDispatchNoBacktracking(t *testing.T) {
	// "{x}" is inserted before "b", so "b" is swallowed by the parameter
	// edge and the literal subtree below it is never revisited.
	def := NewDefinition().
		Route("/a/{x}", Handlers{"get": noop}).
		Route("/a/b/c", Handlers{"get": noop})
	r := MustNew(def)

	m := r.Dispatch("GET", "/a/b")
	require.NotNil(t, m.Handler)
	assert.Equal(t, "/a/{x}", m.RouteKey)

	// "/a/b/c" descends into {x} with "b", which has no "c" child. The
	// sibling literal "b" subtree is not retried.
	assert.Equal(t, http.StatusNotFound, r.Dispatch("GET", "/a/b/c").Status)
}

func TestDispatchFirstMatchWins(t *testing.T) {
	first := func(c *Context) { c.Status(201) }
	second := func(c *Context) { c.Status(202) }

	def := NewDefinition().
		Route("/v/{x:[0-9]+}", Handlers{"get": first}).
		Route("/v/{x:.+}", Handlers{"get": second})
	r := MustNew(def)

	m := r.Dispatch("GET", "/v/42")
	require.NotNil(t, m.Handler)
	assert.Equal(t, "/v/{x:[0-9]+}", m.RouteKey)

	m = r.Dispatch("GET", "/v/mars")
	require.NotNil(t, m.Handler)
	assert.Equal(t, "/v/{x:.+}", m.RouteKey)
}

func TestDispatchMethodSelection(t *testing.T) {
	def := NewDefinition().
		Route("/users", Handlers{"get": noop}).
		Route("/anything", Handlers{"*": noop})
	r := MustNew(def)

	t.Run("exact method", func(t *testing.T) {
		assert.NotNil(t, r.Dispatch("GET", "/users").Handler)
	})

	t.Run("method is case-insensitive", func(t *testing.T) {
		assert.NotNil(t, r.Dispatch("get", "/users").Handler)
	})

	t.Run("mismatch yields 406 with route key", func(t *testing.T) {
		m := r.Dispatch("POST", "/users")
		assert.Nil(t, m.Handler)
		assert.Equal(t, http.StatusNotAcceptable, m.Status)
		assert.Equal(t, "/users", m.RouteKey)
	})

	t.Run("wildcard catches any method", func(t *testing.T) {
		assert.NotNil(t, r.Dispatch("DELETE", "/anything").Handler)
		assert.NotNil(t, r.Dispatch("PATCH", "/anything").Handler)
	})
}

func TestDispatchPercentDecoding(t *testing.T) {
	def := NewDefinition().
		Route("/users/{name}", Handlers{"get": noop})
	r := MustNew(def)

	m := r.Dispatch("GET", "/users/ren%C3%A9e")
	require.NotNil(t, m.Handler)
	assert.Equal(t, "renée", m.Param("name"))

	// An encoded slash is decoded after splitting, so it stays within
	// its segment instead of creating a new one.
	m = r.Dispatch("GET", "/users/a%2Fb")
	require.NotNil(t, m.Handler)
	assert.Equal(t, "a/b", m.Param("name"))
}

func TestDispatchUndecodableSegmentMatchedRaw(t *testing.T) {
	def := NewDefinition().
		Route("/raw/{v}", Handlers{"get": noop})
	r := MustNew(def)

	// "%zz" is not valid percent-encoding; the segment is matched as-is.
	m := r.Dispatch("GET", "/raw/%zz")
	require.NotNil(t, m.Handler)
	assert.Equal(t, "%zz", m.Param("v"))
}

func TestDispatchRootPath(t *testing.T) {
	def := NewDefinition().
		Route("/", Handlers{"get": noop})
	r := MustNew(def)

	m := r.Dispatch("GET", "/")
	require.NotNil(t, m.Handler)
	assert.Equal(t, "/", m.RouteKey)
}

func TestMatchParamAbsent(t *testing.T) {
	def := NewDefinition().
		Route("/users/{id}", Handlers{"get": noop})
	r := MustNew(def)

	m := r.Dispatch("GET", "/users/42")
	assert.Equal(t, "", m.Param("missing"))
}
