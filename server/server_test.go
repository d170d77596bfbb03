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
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"

	"github.com/trellis-dev/trellis/logging"
)

func noopHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
}

func quietLogger() *logging.Logger {
	logger, _ := logging.NewTestLogger()
	return logger
}

func TestNewValidation(t *testing.T) {
	t.Run("nil handler", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrNilHandler)
	})

	t.Run("invalid protocol", func(t *testing.T) {
		_, err := New(noopHandler(), WithProtocol("spdy"))
		assert.ErrorIs(t, err, ErrInvalidProtocol)
	})

	t.Run("valid protocols", func(t *testing.T) {
		for _, p := range []Protocol{ProtocolHTTP1, ProtocolHTTP2} {
			_, err := New(noopHandler(), WithProtocol(p))
			assert.NoError(t, err, "protocol %s", p)
		}
	})
}

func TestMustNewPanicsOnInvalidConfig(t *testing.T) {
	assert.Panics(t, func() {
		MustNew(nil)
	})
}

// startTestServer runs a server on an ephemeral port and returns its base
// URL plus a channel yielding Run's exit code.
func startTestServer(t *testing.T, handler http.Handler, opts ...Option) (*Server, string, <-chan int) {
	t.Helper()

	base := []Option{
		WithHost("127.0.0.1"),
		WithPort(0),
		WithBanner(false),
		WithLogger(quietLogger()),
		WithExitFunc(func(int) {}),
	}
	srv := MustNew(handler, append(base, opts...)...)

	exitCode := make(chan int, 1)
	go func() { exitCode <- srv.Run() }()

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server never became ready")
	}

	return srv, "http://" + srv.Addr().String(), exitCode
}

func awaitExit(t *testing.T, exitCode <-chan int) int {
	t.Helper()
	select {
	case code := <-exitCode:
		return code
	case <-time.After(5 * time.Second):
		t.Fatal("server did not exit")
		return -1
	}
}

func TestServerServesAndShutsDown(t *testing.T) {
	srv, baseURL, exitCode := startTestServer(t, noopHandler())

	resp, err := http.Get(baseURL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	srv.Shutdown(0)
	assert.Equal(t, 0, awaitExit(t, exitCode))
}

func TestServerShutdownExitCodePropagates(t *testing.T) {
	srv, _, exitCode := startTestServer(t, noopHandler())

	srv.Shutdown(1)
	assert.Equal(t, 1, awaitExit(t, exitCode))
}

func TestServerDrainsActiveRequest(t *testing.T) {
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = io.WriteString(w, "done")
	})

	srv, baseURL, exitCode := startTestServer(t, handler,
		WithPollInterval(5*time.Millisecond))

	type result struct {
		body string
		err  error
	}
	results := make(chan result, 1)
	go func() {
		resp, err := http.Get(baseURL + "/slow")
		if err != nil {
			results <- result{err: err}
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		results <- result{body: string(body), err: err}
	}()

	// Let the request reach the handler, then start draining while it is
	// still mid-response.
	require.Eventually(t, func() bool {
		return srv.tracker.Len() > 0
	}, time.Second, time.Millisecond)
	srv.Shutdown(0)

	close(release)

	r := <-results
	require.NoError(t, r.err)
	assert.Equal(t, "done", r.body)
	assert.Equal(t, 0, awaitExit(t, exitCode))
}

func TestServerLifecycleHooks(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(step string) {
		mu.Lock()
		order = append(order, step)
		mu.Unlock()
	}

	srv := MustNew(noopHandler(),
		WithHost("127.0.0.1"),
		WithPort(0),
		WithBanner(false),
		WithLogger(quietLogger()),
		WithExitFunc(func(int) {}),
	)
	srv.OnStart(func(context.Context) error { record("start"); return nil })
	srv.OnShutdown(func(context.Context) { record("shutdown-a") })
	srv.OnShutdown(func(context.Context) { record("shutdown-b") })
	srv.OnStop(func() { record("stop") })

	exitCode := make(chan int, 1)
	go func() { exitCode <- srv.Run() }()
	<-srv.Ready()

	srv.Shutdown(0)
	awaitExit(t, exitCode)

	mu.Lock()
	defer mu.Unlock()
	// OnShutdown hooks run LIFO.
	assert.Equal(t, []string{"start", "shutdown-b", "shutdown-a", "stop"}, order)
}

func TestServerOnStartFailureAborts(t *testing.T) {
	srv := MustNew(noopHandler(),
		WithHost("127.0.0.1"),
		WithPort(0),
		WithBanner(false),
		WithLogger(quietLogger()),
		WithExitFunc(func(int) {}),
	)
	srv.OnStart(func(context.Context) error { return errors.New("no database") })

	assert.Equal(t, 1, srv.Run())
	assert.Nil(t, srv.Addr())
}

func TestServerBindFailureExitsFatally(t *testing.T) {
	// Occupy a port, then ask a second server for it.
	first, _, firstExit := startTestServer(t, noopHandler())
	_, portStr, err := net.SplitHostPort(first.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	logger, buf := logging.NewTestLogger()
	second := MustNew(noopHandler(),
		WithHost("127.0.0.1"),
		WithPort(port),
		WithBanner(false),
		WithLogger(logger),
		WithExitFunc(func(int) {}),
	)

	assert.Equal(t, 1, second.Run())

	entries, parseErr := logging.ParseJSONEntries(buf)
	require.NoError(t, parseErr)
	var fatal bool
	for _, e := range entries {
		if e.Level == "FATAL" && e.Message == "failed to bind listener" {
			fatal = true
		}
	}
	assert.True(t, fatal, "expected a fatal bind log entry")

	first.Shutdown(0)
	awaitExit(t, firstExit)
}

func TestServerMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "trellis_test_marker_total",
		Help: "Test marker.",
	}).Inc()

	srv, baseURL, exitCode := startTestServer(t, noopHandler(),
		WithMetrics(reg, "/metrics"))

	resp, err := http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "trellis_test_marker_total")

	// Non-metrics paths still reach the application handler.
	resp, err = http.Get(baseURL + "/other")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	srv.Shutdown(0)
	awaitExit(t, exitCode)
}

func TestServerH2CServesHTTP2(t *testing.T) {
	srv, baseURL, exitCode := startTestServer(t, noopHandler(),
		WithProtocol(ProtocolHTTP2))

	// A prior-knowledge HTTP/2 client over cleartext TCP.
	client := &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}

	resp, err := client.Get(baseURL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, 2, resp.ProtoMajor)
	assert.Equal(t, "ok", string(body))

	// HTTP/1.1 clients are still served through the h2c wrapper.
	resp, err = http.Get(baseURL + "/")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProtoMajor)
	_ = resp.Body.Close()

	client.CloseIdleConnections()
	srv.Shutdown(0)
	awaitExit(t, exitCode)
}

func TestServerRunTwiceRefused(t *testing.T) {
	srv, _, exitCode := startTestServer(t, noopHandler())

	assert.Equal(t, 1, srv.Run())

	srv.Shutdown(0)
	assert.Equal(t, 0, awaitExit(t, exitCode))
}
