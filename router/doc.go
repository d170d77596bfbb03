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

// Package router compiles route definitions into a segment-matching tree
// and dispatches HTTP requests against it.
//
// A route definition is an ordered sequence of (pattern, target) pairs.
// Patterns are path templates or raw regular expressions; targets are
// either a handler set or a nested definition. Templates support:
//
//   - literal segments:        /machines/status
//   - named parameters:        /machines/{id}
//   - constrained parameters:  /machines/{id:[a-z]+}
//   - splats (match-to-end):   /files/{path*} or /files/{path*:.*\.json}
//
// The tree is built once at startup and is immutable while serving, so
// concurrent dispatch needs no synchronization. Dispatch walks the tree
// segment by segment in insertion order with no backtracking across
// sibling subtrees: a failure at any depth fails the whole path.
//
// Example:
//
//	def := router.NewDefinition().
//	    Route("/machines", router.Handlers{"get": listMachines}).
//	    Route("/machines/{id}", router.Handlers{"get": getMachine})
//
//	r := router.MustNew(def, router.WithLogger(logger))
//	http.ListenAndServe(":8080", r)
package router
