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
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trellis-dev/trellis/logging"
)

// Phase is the coordinator's lifecycle state.
type Phase int32

const (
	PhaseRunning Phase = iota
	PhaseShuttingDown
	PhaseStopped
)

// transport is the slice of [http.Server] the coordinator drives. It is
// an interface so shutdown sequencing can be tested without opening
// sockets.
type transport interface {
	SetKeepAlivesEnabled(bool)
	Shutdown(ctx context.Context) error
}

// Coordinator owns the active-session set and the shutdown sequence.
//
// State machine: Running → ShuttingDown → Stopped. The single operation
// InitiateShutdown(exitCode) drives the transition; the signal layer and
// the fatal-error path are thin adapters calling it. Entry actions on
// ShuttingDown: log the intent, stop new keep-alive reservations, close
// every idle session. While ShuttingDown, the active set is re-swept
// every poll interval and sessions that became idle are closed. The
// transition to Stopped happens once the transport reports fully closed
// (covering sockets it manages outside the tracked set); completion is
// logged and the process terminates through the exit function with the
// code supplied at initiation.
//
// InitiateShutdown is idempotent: the first caller wins, later calls
// (and their exit codes) are ignored.
type Coordinator struct {
	tracker   *Tracker
	logger    *logging.Logger
	transport transport
	poll      time.Duration
	exit      func(int)

	// Hooks run at fixed points of the sequence; either may be nil.
	onShuttingDown func(context.Context)
	onStopped      func()

	once  sync.Once
	done  chan struct{}
	phase atomic.Int32
	code  atomic.Int32
}

// defaultPollInterval is the idle-sweep fallback when no keep-alive
// timeout is configured.
const defaultPollInterval = time.Second

// newCoordinator wires a coordinator. A nil exit function defaults to
// [os.Exit]; tests inject a recorder instead.
func newCoordinator(tracker *Tracker, logger *logging.Logger, tr transport, poll time.Duration, exit func(int)) *Coordinator {
	if poll <= 0 {
		poll = defaultPollInterval
	}
	if exit == nil {
		exit = os.Exit
	}
	return &Coordinator{
		tracker:   tracker,
		logger:    logger,
		transport: tr,
		poll:      poll,
		exit:      exit,
		done:      make(chan struct{}),
	}
}

// Phase returns the current lifecycle state.
func (c *Coordinator) Phase() Phase {
	return Phase(c.phase.Load())
}

// Done is closed when the sequence reaches Stopped, immediately before
// the exit function runs.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// ExitCode returns the code supplied to the first InitiateShutdown call.
func (c *Coordinator) ExitCode() int { return int(c.code.Load()) }

// InitiateShutdown moves the server from Running to ShuttingDown and
// drains it. Exit code 0 marks a requested shutdown, 1 a fatal server
// error. Safe to call from any goroutine; only the first call acts.
func (c *Coordinator) InitiateShutdown(exitCode int) {
	c.once.Do(func() {
		c.code.Store(int32(exitCode))
		c.phase.Store(int32(PhaseShuttingDown))
		c.logger.Info("shutting down",
			"event", "shutdown",
			"exit_code", exitCode,
			"active_sessions", c.tracker.Len(),
		)
		go c.drain(exitCode)
	})
}

// drain performs the ShuttingDown work: stop keep-alives, close idle
// sessions now and on every poll tick, wait for the transport to report
// fully closed, then stop.
func (c *Coordinator) drain(exitCode int) {
	if c.transport != nil {
		c.transport.SetKeepAlivesEnabled(false)
	}

	if closed := c.tracker.CloseIdle(); closed > 0 {
		c.logger.Debug("closed idle sessions", "event", "shutdown", "count", closed)
	}

	// The transport's own graceful shutdown runs alongside the idle
	// sweep; it sends HTTP/2 GOAWAY frames and closes the listener, and
	// returning from it means no sockets remain under its management.
	listenerClosed := make(chan struct{})
	go func() {
		defer close(listenerClosed)
		if c.transport != nil {
			_ = c.transport.Shutdown(context.Background())
		}
	}()

	if c.onShuttingDown != nil {
		c.onShuttingDown(context.Background())
	}

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for c.tracker.Len() > 0 {
		<-ticker.C
		if closed := c.tracker.CloseIdle(); closed > 0 {
			c.logger.Debug("closed idle sessions", "event", "shutdown", "count", closed)
		}
	}

	<-listenerClosed

	c.phase.Store(int32(PhaseStopped))
	c.logger.Info("shutdown complete", "event", "shutdown", "exit_code", exitCode)

	if c.onStopped != nil {
		c.onStopped()
	}

	close(c.done)
	c.exit(exitCode)
}

// Wait blocks until the sequence reaches Stopped and returns the exit
// code. It only returns when the exit function does not terminate the
// process, which is the case in tests.
func (c *Coordinator) Wait() int {
	<-c.done
	return c.ExitCode()
}
