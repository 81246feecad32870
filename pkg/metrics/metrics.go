// Package metrics defines the Prometheus metric collectors used across the
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service. Each Metrics owns
// its registry, so several instances can coexist in one process.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	AnswersTotal         *prometheus.CounterVec
	AnswerLatency        prometheus.Histogram
	AnswerUnits          prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	IngestionsTotal      *prometheus.CounterVec
	IndexedUnits         prometheus.Gauge
	IngestLatency        prometheus.Histogram
	PanicsTotal          prometheus.Counter
	RateLimitedTotal     prometheus.Counter
	CircuitBreakerState  *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New creates all collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		AnswersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docqa_answers_total",
				Help: "Answers produced by strategy (NOT_INDEXED, OVERVIEW, NOT_FOUND, BROAD, SPECIFIC).",
			},
			[]string{"kind"},
		),
		AnswerLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docqa_answer_latency_seconds",
				Help:    "Question answering latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),
		AnswerUnits: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docqa_answer_units",
				Help:    "Number of units returned per answer.",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docqa_cache_hits_total",
				Help: "Total number of answer cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docqa_cache_misses_total",
				Help: "Total number of answer cache misses.",
			},
		),
		IngestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docqa_ingestions_total",
				Help: "Document ingestions by outcome (indexed, insufficient, failed).",
			},
			[]string{"status"},
		),
		IndexedUnits: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docqa_indexed_units",
				Help: "Number of units in the live index.",
			},
		),
		IngestLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docqa_ingest_latency_seconds",
				Help:    "Index build latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		PanicsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docqa_recovered_panics_total",
				Help: "Panics recovered at the request boundary.",
			},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docqa_rate_limited_total",
				Help: "Requests rejected by the rate limiter.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.AnswersTotal,
		m.AnswerLatency,
		m.AnswerUnits,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.IngestionsTotal,
		m.IndexedUnits,
		m.IngestLatency,
		m.PanicsTotal,
		m.RateLimitedTotal,
		m.CircuitBreakerState,
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
