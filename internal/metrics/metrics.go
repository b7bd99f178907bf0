// Package metrics provides Prometheus metrics for the support assistant.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusFallback = "fallback"
	StatusEmpty    = "empty"
)

// Metrics holds every collector on a private registry. All methods accept a
// nil receiver so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	SearchRequestsTotal *prometheus.CounterVec
	SearchDuration      prometheus.Histogram

	LLMRequestsTotal *prometheus.CounterVec
	LLMDuration      prometheus.Histogram

	IngestFilesTotal   *prometheus.CounterVec
	ChunksIndexedTotal prometheus.Counter

	SessionsClearedTotal prometheus.Counter
	ActiveSessions       prometheus.Gauge

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.SearchRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_search_requests_total",
			Help: "Total number of knowledge base searches",
		},
		[]string{"status"},
	)

	m.SearchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "support_search_duration_seconds",
			Help:    "Duration of knowledge base searches in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	m.LLMRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_llm_requests_total",
			Help: "Total number of language model calls",
		},
		[]string{"status"},
	)

	m.LLMDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "support_llm_duration_seconds",
			Help:    "Duration of language model calls in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	m.IngestFilesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_ingest_files_total",
			Help: "Total number of source files processed by ingestion",
		},
		[]string{"status"},
	)

	m.ChunksIndexedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "support_chunks_indexed_total",
			Help: "Total number of chunks written to the index",
		},
	)

	m.SessionsClearedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "support_sessions_cleared_total",
			Help: "Total number of conversation histories cleared",
		},
	)

	m.ActiveSessions = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "support_active_sessions",
			Help: "Number of conversations currently held in memory",
		},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_http_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "support_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordSearch(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchRequestsTotal.WithLabelValues(status).Inc()
	m.SearchDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordLLM(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(status).Inc()
	m.LLMDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordIngestFile(status string) {
	if m == nil {
		return
	}
	m.IngestFilesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) AddChunksIndexed(n int) {
	if m == nil {
		return
	}
	m.ChunksIndexedTotal.Add(float64(n))
}

func (m *Metrics) RecordSessionCleared() {
	if m == nil {
		return
	}
	m.SessionsClearedTotal.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
