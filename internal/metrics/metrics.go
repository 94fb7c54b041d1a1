// Copyright 2021 NetEase Inc.
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

// Package metrics exposes the client's Prometheus instrumentation: cache
// hit/miss counters, extent allocation counts and block I/O latency. All
// metrics are registered against a private registry rather than the global
// default, so multiple mounts in the same process (as in tests) don't
// collide on metric names.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every metric this client registers and the registry
// they're registered against. Only CacheHits and CacheMisses are updated by
// the client (through the caches' SetMetricVecs); nothing in the client
// updates ExtentAllocations, ExtentDeallocs or BlockIOLatency, so they stay
// at zero.
type Registry struct {
	reg *prometheus.Registry

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	ExtentAllocations prometheus.Counter
	ExtentDeallocs    prometheus.Counter

	BlockIOLatency *prometheus.HistogramVec
}

// New constructs and registers a fresh metric set.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curvefs_client",
			Name:      "cache_hits_total",
			Help:      "Count of cache lookups served without a backend round trip, by cache name.",
		}, []string{"cache"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curvefs_client",
			Name:      "cache_misses_total",
			Help:      "Count of cache lookups that required a backend round trip, by cache name.",
		}, []string{"cache"}),
		ExtentAllocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curvefs_client",
			Name:      "extent_allocations_total",
			Help:      "Count of AllocExtents calls issued to the space service.",
		}),
		ExtentDeallocs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curvefs_client",
			Name:      "extent_deallocations_total",
			Help:      "Count of DeAllocExtents calls issued to the space service, including rollbacks.",
		}),
		BlockIOLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "curvefs_client",
			Name:      "block_io_latency_seconds",
			Help:      "Per-call latency of block device reads and writes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(r.CacheHits, r.CacheMisses, r.ExtentAllocations, r.ExtentDeallocs, r.BlockIOLatency)
	return r
}

// Handler returns the HTTP handler an exporter binds to serve this
// registry's metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
