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
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/trellis-dev/trellis/logging"
)

// Server binds an http.Handler to a listener and manages its lifecycle:
// startup hooks, signal handling, and connection-draining graceful
// shutdown. Build one with [New], start it with [Server.Run].
//
// Thread safety: hook registration is safe from any goroutine before
// Run; Shutdown and Wait are safe from any goroutine at any time.
type Server struct {
	config  *config
	handler http.Handler
	logger  *logging.Logger

	hooks   hooks
	tracker *Tracker

	mu       sync.Mutex
	running  bool
	addr     net.Addr
	coord    *Coordinator
	ready    chan struct{}
}

// New creates a Server for handler. Options apply in order, so place
// [WithEnv] last for environment variables to win.
func New(handler http.Handler, opts ...Option) (*Server, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.envErrors) > 0 {
		return nil, errors.Join(cfg.envErrors...)
	}
	if cfg.protocol != ProtocolHTTP1 && cfg.protocol != ProtocolHTTP2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProtocol, cfg.protocol)
	}

	logger := cfg.logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.WithServiceName(cfg.serviceName))
		if err != nil {
			return nil, err
		}
	}

	return &Server{
		config:  cfg,
		handler: handler,
		logger:  logger,
		tracker: NewTracker(),
		ready:   make(chan struct{}),
	}, nil
}

// MustNew is like [New] but panics on error. Intended for main functions
// and examples where configuration is static.
func MustNew(handler http.Handler, opts ...Option) *Server {
	s, err := New(handler, opts...)
	if err != nil {
		panic(fmt.Sprintf("server.MustNew: %v", err))
	}
	return s
}

// Addr reports the listener's address once the server is running. It is
// useful with port 0, where the OS picks the port. Returns nil before
// the listener is bound.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Ready is closed once the listener is accepting connections.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Shutdown begins graceful shutdown with the given exit code. It is safe
// to call from handlers and from multiple goroutines; only the first
// call takes effect.
func (s *Server) Shutdown(exitCode int) {
	s.mu.Lock()
	coord := s.coord
	s.mu.Unlock()
	if coord != nil {
		coord.InitiateShutdown(exitCode)
	}
}

// Run starts the server and blocks until shutdown completes, returning
// the exit code. Unless [WithExitFunc] overrides it, the drain sequence
// ends in os.Exit and Run never returns.
//
// The sequence: OnStart hooks, bind, protocol setup, OnReady hooks, then
// serve until a signal or a [Server.Shutdown] call drains connections.
func (s *Server) Run() int {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Error("run refused", "error", ErrAlreadyRunning)
		return 1
	}
	s.running = true
	s.mu.Unlock()

	exit := s.config.exit
	if exit == nil {
		exit = os.Exit
	}

	if err := s.executeStartHooks(context.Background()); err != nil {
		s.logger.Error("startup aborted", "error", err)
		exit(1)
		return 1
	}

	addr := net.JoinHostPort(s.config.host, strconv.Itoa(s.config.port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.logger.Fatal("failed to bind listener", "address", addr, "error", err)
		exit(1)
		return 1
	}

	handler := s.handler
	if s.config.metricsRegistry != nil {
		handler = s.wrapMetrics(handler)
	}

	httpServer := &http.Server{
		Handler:           handler,
		IdleTimeout:       s.config.idleTimeout,
		ReadHeaderTimeout: s.config.readHeaderTimeout,
		ConnState:         s.tracker.ConnState,
	}

	listener, err = s.configureProtocol(httpServer, listener)
	if err != nil {
		s.logger.Fatal("failed to configure transport", "protocol", string(s.config.protocol), "error", err)
		_ = listener.Close()
		exit(1)
		return 1
	}

	coord := newCoordinator(s.tracker, s.logger, httpServer, s.config.sweepInterval(), exit)
	coord.onShuttingDown = s.executeShutdownHooks
	coord.onStopped = s.executeStopHooks

	s.mu.Lock()
	s.addr = listener.Addr()
	s.coord = coord
	s.mu.Unlock()

	stopSignals := notifySignals(coord, s.logger)
	defer stopSignals()

	if s.config.banner {
		s.printStartupBanner(listener.Addr().String())
	}
	s.logger.Info("server listening",
		"event", "startup",
		"address", listener.Addr().String(),
		"protocol", string(s.config.protocol),
		"secure", s.config.secure,
	)

	go func() {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("serve failed", "error", serveErr)
			coord.InitiateShutdown(1)
		}
	}()

	close(s.ready)
	s.executeReadyHooks()

	return coord.Wait()
}

// configureProtocol applies the protocol and TLS settings to httpServer,
// returning the listener to serve on (wrapped in TLS when secure).
func (s *Server) configureProtocol(httpServer *http.Server, listener net.Listener) (net.Listener, error) {
	if !s.config.secure {
		if s.config.protocol == ProtocolHTTP2 {
			// Cleartext HTTP/2: wrap the handler so h2c upgrade and
			// prior-knowledge connections are recognized.
			h2s := &http2.Server{}
			httpServer.Handler = h2c.NewHandler(httpServer.Handler, h2s)
		}
		return listener, nil
	}

	cert, err := tls.LoadX509KeyPair(s.config.certFile, s.config.keyFile)
	if err != nil {
		return listener, fmt.Errorf("loading key pair: %w", err)
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"http/1.1"},
	}

	// A client CA bundle enables optional mutual TLS: clients that
	// present a certificate are verified against it.
	if _, statErr := os.Stat(s.config.caFile); statErr == nil {
		caPEM, readErr := os.ReadFile(s.config.caFile)
		if readErr != nil {
			return listener, fmt.Errorf("reading client CA: %w", readErr)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return listener, fmt.Errorf("parsing client CA %s: no certificates found", s.config.caFile)
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.VerifyClientCertIfGiven
	}

	if s.config.protocol == ProtocolHTTP2 {
		httpServer.TLSConfig = tlsConfig
		if err := http2.ConfigureServer(httpServer, &http2.Server{}); err != nil {
			return listener, fmt.Errorf("configuring http2: %w", err)
		}
		tlsConfig = httpServer.TLSConfig // ConfigureServer adds "h2" to NextProtos
	}

	return tls.NewListener(listener, tlsConfig), nil
}

// wrapMetrics serves the Prometheus registry on the metrics path and
// delegates everything else to next.
func (s *Server) wrapMetrics(next http.Handler) http.Handler {
	metricsHandler := promhttp.HandlerFor(s.config.metricsRegistry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == s.config.metricsPath {
			metricsHandler.ServeHTTP(w, req)
			return
		}
		next.ServeHTTP(w, req)
	})
}
