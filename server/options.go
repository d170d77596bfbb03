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
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trellis-dev/trellis/logging"
)

// Protocol selects the transport protocol.
type Protocol string

const (
	// ProtocolHTTP1 serves HTTP/1.1 (the default).
	ProtocolHTTP1 Protocol = "http1.1"
	// ProtocolHTTP2 serves HTTP/2: via ALPN when the server is secure,
	// via cleartext h2c otherwise.
	ProtocolHTTP2 Protocol = "http2"
)

// Default TLS material locations for local development.
const (
	defaultCertFile = "certs/dev/server.crt"
	defaultKeyFile  = "certs/dev/server.key"
	defaultCAFile   = "certs/dev/ca.crt"
)

// config holds resolved server configuration. Options apply first, then
// environment overrides when [WithEnv] is used.
type config struct {
	host     string
	port     int
	protocol Protocol
	secure   bool

	certFile string
	keyFile  string
	caFile   string

	serviceName string
	banner      bool

	idleTimeout       time.Duration
	readHeaderTimeout time.Duration
	pollInterval      time.Duration

	metricsPath     string
	metricsRegistry *prometheus.Registry

	logger *logging.Logger
	exit   func(int)

	envErrors []error
}

// Option is a functional option for configuring a Server.
type Option func(*config)

func defaultConfig() *config {
	return &config{
		host:              "localhost",
		port:              0, // ephemeral
		protocol:          ProtocolHTTP1,
		certFile:          defaultCertFile,
		keyFile:           defaultKeyFile,
		caFile:            defaultCAFile,
		serviceName:       "trellis",
		banner:            true,
		idleTimeout:       60 * time.Second,
		readHeaderTimeout: 10 * time.Second,
		metricsPath:       "/metrics",
	}
}

// WithHost sets the bind address.
func WithHost(host string) Option {
	return func(c *config) { c.host = host }
}

// WithPort sets the listen port. Zero picks an ephemeral port.
func WithPort(port int) Option {
	return func(c *config) { c.port = port }
}

// WithProtocol selects HTTP/1.1 or HTTP/2.
func WithProtocol(p Protocol) Option {
	return func(c *config) { c.protocol = p }
}

// WithTLS enables secure transport using the given certificate and key
// files. Empty arguments keep the local-development defaults.
func WithTLS(certFile, keyFile string) Option {
	return func(c *config) {
		c.secure = true
		if certFile != "" {
			c.certFile = certFile
		}
		if keyFile != "" {
			c.keyFile = keyFile
		}
	}
}

// WithClientCA sets the CA bundle used to verify client certificates
// when one is presented.
func WithClientCA(caFile string) Option {
	return func(c *config) {
		if caFile != "" {
			c.caFile = caFile
		}
	}
}

// WithLogger injects the server's logger. Without it, one is built from
// the environment (LOG_LEVEL, LOG_FORMAT, NO_COLOR).
func WithLogger(l *logging.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithServiceName names the service in the startup banner and logs.
func WithServiceName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.serviceName = name
		}
	}
}

// WithBanner toggles the startup banner.
func WithBanner(enabled bool) Option {
	return func(c *config) { c.banner = enabled }
}

// WithIdleTimeout sets the keep-alive idle timeout, which also paces the
// shutdown idle sweep.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *config) { c.idleTimeout = d }
}

// WithPollInterval overrides the shutdown idle-sweep interval. By
// default the sweep follows the idle timeout, capped at five seconds.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) { c.pollInterval = d }
}

// WithMetrics exposes the registry's metrics on path (default /metrics).
// Pair it with router.WithMetrics on the same registry.
func WithMetrics(reg *prometheus.Registry, path string) Option {
	return func(c *config) {
		c.metricsRegistry = reg
		if path != "" {
			c.metricsPath = path
		}
	}
}

// WithExitFunc overrides process termination at the end of shutdown.
// Tests use it to observe exit codes without exiting.
func WithExitFunc(exit func(int)) Option {
	return func(c *config) { c.exit = exit }
}

// sweepInterval resolves the shutdown poll interval: the explicit
// override when set, otherwise the idle timeout capped at five seconds,
// otherwise the one-second fallback.
func (c *config) sweepInterval() time.Duration {
	if c.pollInterval > 0 {
		return c.pollInterval
	}
	if c.idleTimeout > 0 {
		if c.idleTimeout > 5*time.Second {
			return 5 * time.Second
		}
		return c.idleTimeout
	}
	return defaultPollInterval
}
