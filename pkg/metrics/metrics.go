// Package metrics defines the Prometheus collectors for the word distance
// service and serves them for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcome labels for DistanceQueriesTotal.
const (
	ResultFound          = "found"
	ResultWordNotFound   = "word_not_found"
	ResultCorpusNotFound = "corpus_not_found"
	ResultError          = "error"
)

type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	DistanceQueriesTotal *prometheus.CounterVec
	DistanceLatency      *prometheus.HistogramVec
	DistanceValue        prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	CorporaIndexedTotal  prometheus.Counter
	CorporaRegistered    prometheus.Gauge
	CorpusWords          *prometheus.GaugeVec
	RPCRequestsTotal     *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New creates the collectors on a private registry, so several instances
// can coexist in one process (tests, embedded servers).
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
		DistanceQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "distance_queries_total",
				Help: "Shortest-distance queries by outcome (found, word_not_found, corpus_not_found, error).",
			},
			[]string{"result"},
		),
		DistanceLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distance_query_latency_seconds",
				Help:    "Shortest-distance query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
			},
			[]string{"cache_status"},
		),
		DistanceValue: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "distance_query_result",
				Help:    "Distribution of returned shortest distances.",
				Buckets: []float64{0, 1, 2, 5, 10, 50, 100, 1000, 10000},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of distance cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of distance cache misses.",
			},
		),
		CorporaIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "corpora_indexed_total",
				Help: "Total corpora indexed since start.",
			},
		),
		CorporaRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpora_registered",
				Help: "Number of corpora currently queryable.",
			},
		),
		CorpusWords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "corpus_words",
				Help: "Sequence length per corpus.",
			},
			[]string{"corpus"},
		),
		RPCRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpc_requests_total",
				Help: "RPC requests by method and response code.",
			},
			[]string{"method", "code"},
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
		m.DistanceQueriesTotal,
		m.DistanceLatency,
		m.DistanceValue,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CorporaIndexedTotal,
		m.CorporaRegistered,
		m.CorpusWords,
		m.RPCRequestsTotal,
		m.CircuitBreakerState,
	)
	return m
}

// Handler returns the scrape handler for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
