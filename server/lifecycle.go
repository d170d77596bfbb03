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

package server

import (
	"context"
	"fmt"
	"sync"
)

// hooks stores lifecycle callbacks for a Server.
type hooks struct {
	mu         sync.Mutex
	onStart    []func(context.Context) error // Sequential, stops on first error
	onReady    []func()                      // Async OK
	onShutdown []func(context.Context)       // LIFO order
	onStop     []func()                      // Best effort
}

// OnStart registers a hook that runs before the server starts listening.
// Hooks run sequentially, and if any hook returns an error, startup is
// aborted. Use it for initialization that must succeed (database
// connections, migrations, etc.).
func (s *Server) OnStart(fn func(context.Context) error) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onStart = append(s.hooks.onStart, fn)
}

// OnReady registers a hook that runs after the server starts listening.
// Hooks run asynchronously; panics are logged but don't stop the server.
// Use it for warmup tasks or service discovery registration.
func (s *Server) OnReady(fn func()) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onReady = append(s.hooks.onReady, fn)
}

// OnShutdown registers a hook that runs during graceful shutdown, after
// the listener has stopped accepting and before the process exits. Hooks
// run in reverse registration order (LIFO).
func (s *Server) OnShutdown(fn func(context.Context)) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onShutdown = append(s.hooks.onShutdown, fn)
}

// OnStop registers a hook that runs after shutdown completes, just
// before the process exits. Hooks run best-effort with panic recovery.
func (s *Server) OnStop(fn func()) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onStop = append(s.hooks.onStop, fn)
}

// executeStartHooks runs all OnStart hooks sequentially, stopping at the
// first error.
func (s *Server) executeStartHooks(ctx context.Context) error {
	s.hooks.mu.Lock()
	fns := make([]func(context.Context) error, len(s.hooks.onStart))
	copy(fns, s.hooks.onStart)
	s.hooks.mu.Unlock()

	for i, fn := range fns {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("OnStart hook %d failed: %w", i, err)
		}
	}
	return nil
}

// executeReadyHooks runs all OnReady hooks asynchronously with panic
// recovery.
func (s *Server) executeReadyHooks() {
	s.hooks.mu.Lock()
	fns := make([]func(), len(s.hooks.onReady))
	copy(fns, s.hooks.onReady)
	s.hooks.mu.Unlock()

	for _, fn := range fns {
		fn := fn
		go func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("OnReady hook panic", "error", r)
				}
			}()
			fn()
		}()
	}
}

// executeShutdownHooks runs all OnShutdown hooks in reverse order (LIFO).
func (s *Server) executeShutdownHooks(ctx context.Context) {
	s.hooks.mu.Lock()
	fns := make([]func(context.Context), len(s.hooks.onShutdown))
	copy(fns, s.hooks.onShutdown)
	s.hooks.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i](ctx)
	}
}

// executeStopHooks runs all OnStop hooks best-effort with panic recovery.
func (s *Server) executeStopHooks() {
	s.hooks.mu.Lock()
	fns := make([]func(), len(s.hooks.onStop))
	copy(fns, s.hooks.onStop)
	s.hooks.mu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Warn("OnStop hook panic", "error", r)
				}
			}()
			fn()
		}()
	}
}
