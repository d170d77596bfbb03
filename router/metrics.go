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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metricsSet holds the per-request Prometheus instruments. Route labels
// use the route key (the registered template), never the raw request
// path, to keep cardinality bounded.
type metricsSet struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// WithMetrics instruments the router with request metrics registered on
// reg. The server exposes them via its metrics endpoint.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Router) {
		factory := promauto.With(reg)
		r.metrics = &metricsSet{
			requests: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "trellis_requests_total",
				Help: "Requests dispatched, by method, route key, and status.",
			}, []string{"method", "route", "status"}),
			duration: factory.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "trellis_request_duration_seconds",
				Help:    "Request duration from dispatch to completion.",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "route"}),
			inFlight: factory.NewGauge(prometheus.GaugeOpts{
				Name: "trellis_requests_in_flight",
				Help: "Requests currently being served.",
			}),
		}
	}
}
