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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/trellis-dev/trellis/logging"
)

// EnvPrefix is the environment variable prefix for Trellis settings.
const EnvPrefix = "TRELLIS_"

// Environment variable names recognized by [WithEnv] and [WithEnvPrefix].
const (
	EnvHost        = "HOST"         // Bind address (e.g., "0.0.0.0")
	EnvPort        = "PORT"         // Listen port (e.g., "8080")
	EnvProtocol    = "PROTOCOL"     // "http1.1" or "http2"
	EnvSecure      = "SECURE"       // Enable TLS: "true" or "false"
	EnvTLSCertFile = "TLS_CERT_FILE" // Server certificate path
	EnvTLSKeyFile  = "TLS_KEY_FILE"  // Server key path
	EnvTLSCAFile   = "TLS_CA_FILE"   // Client CA bundle path

	EnvServiceName = "SERVICE_NAME" // Service name for the banner and logs
	EnvBanner      = "BANNER"       // Show startup banner: "true" or "false"

	EnvIdleTimeout  = "IDLE_TIMEOUT"  // Keep-alive idle timeout (e.g., "60s")
	EnvPollInterval = "POLL_INTERVAL" // Shutdown idle-sweep interval (e.g., "1s")

	EnvLogLevel  = "LOG_LEVEL"  // "trace", "debug", "info", "warn", "error", "fatal"
	EnvLogFormat = "LOG_FORMAT" // "json", "console", or "pretty"
	EnvLogStyle  = "LOG_STYLE"  // Alias for LOG_FORMAT
)

// envState collects parse errors so New can report them together.
type envState struct {
	errors []error
}

func (e *envState) addError(envVar string, err error) {
	e.errors = append(e.errors, fmt.Errorf("invalid environment variable %s: %w", envVar, err))
}

// WithEnv enables environment variable overrides. Variables use the
// TRELLIS_ prefix and take precedence over programmatic configuration.
//
// Supported variables:
//
//	Server:
//	  TRELLIS_HOST           - Bind address (e.g., "0.0.0.0")
//	  TRELLIS_PORT           - Listen port (e.g., "8080")
//	  TRELLIS_PROTOCOL       - "http1.1" or "http2"
//	  TRELLIS_SECURE         - Enable TLS: "true" or "false"
//	  TRELLIS_TLS_CERT_FILE  - Server certificate path
//	  TRELLIS_TLS_KEY_FILE   - Server key path
//	  TRELLIS_TLS_CA_FILE    - Client CA bundle path
//	  TRELLIS_IDLE_TIMEOUT   - Keep-alive idle timeout (e.g., "60s")
//	  TRELLIS_POLL_INTERVAL  - Shutdown idle-sweep interval (e.g., "1s")
//
//	Presentation:
//	  TRELLIS_SERVICE_NAME   - Service name for the banner and logs
//	  TRELLIS_BANNER         - Show startup banner: "true" or "false"
//
//	Logging:
//	  TRELLIS_LOG_LEVEL      - "trace", "debug", "info", "warn", "error", "fatal"
//	  TRELLIS_LOG_FORMAT     - "json", "console", or "pretty"
//	  TRELLIS_LOG_STYLE      - Alias for TRELLIS_LOG_FORMAT
func WithEnv() Option {
	return WithEnvPrefix(EnvPrefix)
}

// WithEnvPrefix enables environment variable overrides with a custom
// prefix. Use it when several Trellis services share an environment.
func WithEnvPrefix(prefix string) Option {
	return func(c *config) {
		env := &envState{}
		applyEnvOverrides(c, prefix, env)
		if len(env.errors) > 0 {
			c.envErrors = append(c.envErrors, env.errors...)
		}
	}
}

// WithDotenv loads variables from the given files (default ".env")
// before any [WithEnv] override runs. Missing files are ignored;
// already-set variables are never overwritten.
func WithDotenv(filenames ...string) Option {
	return func(c *config) {
		if len(filenames) == 0 {
			filenames = []string{".env"}
		}
		for _, name := range filenames {
			if _, err := os.Stat(name); err != nil {
				continue
			}
			if err := godotenv.Load(name); err != nil {
				c.envErrors = append(c.envErrors, fmt.Errorf("loading %s: %w", name, err))
			}
		}
	}
}

func applyEnvOverrides(c *config, prefix string, env *envState) {
	applyEnvString(prefix, EnvHost, &c.host)
	applyEnvInt(prefix, EnvPort, &c.port, env)
	applyEnvDuration(prefix, EnvIdleTimeout, &c.idleTimeout, env)
	applyEnvDuration(prefix, EnvPollInterval, &c.pollInterval, env)

	applyEnvString(prefix, EnvServiceName, &c.serviceName)
	if banner, isSet := applyEnvBool(prefix, EnvBanner); isSet {
		c.banner = banner
	}

	if v := os.Getenv(prefix + EnvProtocol); v != "" {
		switch Protocol(strings.ToLower(v)) {
		case ProtocolHTTP1:
			c.protocol = ProtocolHTTP1
		case ProtocolHTTP2:
			c.protocol = ProtocolHTTP2
		default:
			env.addError(prefix+EnvProtocol, fmt.Errorf("must be %q or %q (got: %s)", ProtocolHTTP1, ProtocolHTTP2, v))
		}
	}

	if secure, isSet := applyEnvBool(prefix, EnvSecure); isSet {
		c.secure = secure
	}
	applyEnvString(prefix, EnvTLSCertFile, &c.certFile)
	applyEnvString(prefix, EnvTLSKeyFile, &c.keyFile)
	applyEnvString(prefix, EnvTLSCAFile, &c.caFile)

	applyEnvLogging(c, prefix, env)
}

// applyEnvString sets a string value from environment if present.
func applyEnvString(prefix, key string, target *string) {
	if v := os.Getenv(prefix + key); v != "" {
		*target = v
	}
}

// applyEnvInt sets an int value from environment if present.
func applyEnvInt(prefix, key string, target *int, env *envState) {
	fullKey := prefix + key
	if v := os.Getenv(fullKey); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			env.addError(fullKey, err)
			return
		}
		*target = parsed
	}
}

// applyEnvDuration sets a duration value from environment if present.
func applyEnvDuration(prefix, key string, target *time.Duration, env *envState) {
	fullKey := prefix + key
	if v := os.Getenv(fullKey); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			env.addError(fullKey, err)
			return
		}
		*target = parsed
	}
}

// applyEnvBool parses a boolean value from environment.
func applyEnvBool(prefix, key string) (value, isSet bool) {
	v := os.Getenv(prefix + key)
	if v == "" {
		return false, false
	}
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes", true
}

// applyEnvLogging rebuilds the logger when LOG_LEVEL or LOG_FORMAT is
// set. An explicit [WithLogger] is left untouched.
func applyEnvLogging(c *config, prefix string, env *envState) {
	level := os.Getenv(prefix + EnvLogLevel)
	format := os.Getenv(prefix + EnvLogFormat)
	if format == "" {
		format = os.Getenv(prefix + EnvLogStyle)
	}
	if level == "" && format == "" || c.logger != nil {
		return
	}

	opts := []logging.Option{logging.WithServiceName(c.serviceName)}
	if level != "" {
		parsed, err := logging.ParseLevel(level)
		if err != nil {
			env.addError(prefix+EnvLogLevel, err)
		} else {
			opts = append(opts, logging.WithLevel(parsed))
		}
	}
	if format != "" {
		switch strings.ToLower(format) {
		case "json":
			opts = append(opts, logging.WithJSONHandler())
		case "console", "pretty":
			opts = append(opts, logging.WithConsoleHandler())
		default:
			env.addError(prefix+EnvLogFormat, fmt.Errorf("must be \"json\", \"console\", or \"pretty\" (got: %s)", format))
			return
		}
	}

	logger, err := logging.New(opts...)
	if err != nil {
		env.addError(prefix+EnvLogFormat, err)
		return
	}
	c.logger = logger
}
