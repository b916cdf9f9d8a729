// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsearch_ingest_total",
		Help: "Ingestion operations by operation and outcome.",
	}, []string{"op", "outcome"})

	ingestStates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsearch_ingest_state_transitions_total",
		Help: "Ingestion state transitions by target state.",
	}, []string{"state"})

	ingestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docsearch_ingest_duration_seconds",
		Help:    "End-to-end ingestion latency.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30, 60},
	}, []string{"op"})

	extractDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docsearch_extract_duration_seconds",
		Help:    "Text extraction latency by file type.",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10, 30, 60},
	}, []string{"type"})

	reconciliationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsearch_reconciliation_errors_total",
		Help: "Content store and index divergences that compensation could not repair.",
	}, []string{"op"})

	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsearch_search_total",
		Help: "Search requests by mode and outcome.",
	}, []string{"mode", "outcome"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docsearch_search_duration_seconds",
		Help:    "Search latency by mode.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
	}, []string{"mode"})

	searchMatches = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docsearch_search_matches",
		Help:    "Matches produced per search before pagination.",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of requests labelled by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// IncIngest counts a finished ingestion operation.
func IncIngest(op, outcome string) {
	ingestTotal.WithLabelValues(op, outcome).Inc()
}

// IncIngestState counts a state transition.
func IncIngestState(state string) {
	ingestStates.WithLabelValues(state).Inc()
}

func ObserveIngestDuration(op string, d time.Duration) {
	ingestDuration.WithLabelValues(op).Observe(d.Seconds())
}

func ObserveExtractDuration(fileType string, d time.Duration) {
	extractDuration.WithLabelValues(fileType).Observe(d.Seconds())
}

// IncReconciliation counts an unrepaired divergence.
func IncReconciliation(op string) {
	reconciliationErrors.WithLabelValues(op).Inc()
}

// ObserveSearch records one search.
func ObserveSearch(mode, outcome string, d time.Duration, matches int) {
	searchTotal.WithLabelValues(mode, outcome).Inc()
	searchDuration.WithLabelValues(mode).Observe(d.Seconds())
	if outcome == "ok" {
		searchMatches.Observe(float64(matches))
	}
}

// ObserveHTTP records one served request.
func ObserveHTTP(route, method, status string, d time.Duration) {
	httpRequests.WithLabelValues(route, method, status).Inc()
	httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
