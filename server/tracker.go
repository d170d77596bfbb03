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
	"net"
	"net/http"
	"sync"
)

// Tracker records live transport sessions opened against the server. It
// is fed exclusively by [http.Server] ConnState callbacks — never by
// request dispatch — and is consulted exactly once, during shutdown, to
// decide when the server may terminate.
//
// net/http runs ConnState callbacks on per-connection goroutines, so the
// active set is guarded by a mutex. A session is registered on StateNew,
// before any response traffic can reference it; removal and close are
// both idempotent, since the idle sweep and a session's own natural close
// may race.
type Tracker struct {
	mu    sync.Mutex
	conns map[net.Conn]http.ConnState
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{conns: make(map[net.Conn]http.ConnState)}
}

// ConnState is the [http.Server] ConnState callback maintaining the
// active set.
func (t *Tracker) ConnState(conn net.Conn, state http.ConnState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch state {
	case http.StateNew, http.StateActive, http.StateIdle:
		t.conns[conn] = state
	case http.StateHijacked, http.StateClosed:
		delete(t.conns, conn)
	}
}

// Len returns the number of tracked sessions.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

// CloseIdle closes every tracked session that is not mid-response
// (StateNew or StateIdle) and returns how many were closed. Sessions
// still writing a response are left alone. Double closes are harmless:
// the close error is discarded and the entry is removed either way.
func (t *Tracker) CloseIdle() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	closed := 0
	for conn, state := range t.conns {
		if state == http.StateNew || state == http.StateIdle {
			_ = conn.Close()
			delete(t.conns, conn)
			closed++
		}
	}
	return closed
}
