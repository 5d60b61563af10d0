// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package metrics exposes Prometheus collectors for HTTP traffic, view loading
and navigation.

Collectors are registered on a private registry rather than the default
one, so tests can create loaders freely without global registration
conflicts.
*/
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "filekit"

// Outcome label values.
const (
	OutcomeOK         = "ok"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
	OutcomeNotFound   = "not_found"
)

// Activation source label values.
const (
	SourceCache  = "cache"
	SourceFlight = "flight"
)

// Registry holds every filekit collector.
var Registry = prometheus.NewRegistry()

var (
	// ViewLoads counts loader invocations by route and outcome.
	ViewLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "loads_total",
			Help:      "Number of on-demand view loads.",
		},
		[]string{"route", "outcome"},
	)

	// ViewLoadDuration observes how long loader invocations take.
	ViewLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "load_duration_seconds",
			Help:      "Duration of on-demand view loads in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"route"},
	)

	// Activations counts activations by route and whether the view came
	// from the cache or from a (possibly shared) load.
	Activations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "activations_total",
			Help:      "Number of view activations.",
		},
		[]string{"route", "source"},
	)

	// HTTPRequests counts served requests by method and status code.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests served.",
		},
		[]string{"method", "code"},
	)

	// HTTPDuration observes request handling time.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Number of requests rejected by the rate limiter.",
		},
	)

	// Sessions reports how many navigation sessions are held in memory.
	Sessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of navigation sessions held in memory.",
		},
	)

	// Navigations counts navigation outcomes.
	Navigations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "navigation",
			Name:      "navigations_total",
			Help:      "Number of navigations by outcome.",
		},
		[]string{"outcome"},
	)
)

//nolint:gochecknoinits // collectors must exist before any loader runs
func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ViewLoads,
		ViewLoadDuration,
		Activations,
		Navigations,
		HTTPRequests,
		HTTPDuration,
		RateLimited,
		Sessions,
	)
}

// ObserveHTTP records one served request.
func ObserveHTTP(method string, code int, seconds float64) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(method).Observe(seconds)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
