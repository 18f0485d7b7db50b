package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service-wide Prometheus collectors on a private
// registry so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RetrievalDuration prometheus.Histogram
	RetrievalResults  prometheus.Histogram

	GraphHops         prometheus.Histogram
	GraphDecisions    *prometheus.CounterVec
	GraphTurnDuration prometheus.Histogram
	PatientLookups    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		RetrievalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "retrieval_duration_seconds",
			Help:    "End-to-end retrieval pipeline latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		RetrievalResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "retrieval_results",
			Help:    "Candidates surviving the relevance threshold.",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}),
		GraphHops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "conversation_hops",
			Help:    "Supervisor hops consumed per turn.",
			Buckets: []float64{1, 2, 3, 4, 5, 6},
		}),
		GraphDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supervisor_decisions_total",
			Help: "Supervisor routing decisions, including fallbacks.",
		}, []string{"route", "fallback"}),
		GraphTurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "conversation_turn_duration_seconds",
			Help:    "Full conversation turn latency.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		PatientLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patient_lookups_total",
			Help: "Patient lookups by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RetrievalDuration,
		m.RetrievalResults,
		m.GraphHops,
		m.GraphDecisions,
		m.GraphTurnDuration,
		m.PatientLookups,
	)

	return m
}

// Handler exposes the private registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
