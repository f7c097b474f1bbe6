package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion pipeline counters
	IngestJobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_jobs_processed_total",
			Help: "Total number of ingestion jobs processed",
		},
		[]string{"provider", "status"}, // status: success, failed
	)

	IngestJobsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_jobs_dropped_total",
			Help: "Ingestion jobs dropped because the queue was full",
		},
	)

	// Analysis duration (seconds)
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_duration_seconds",
			Help:    "End-to-end email analysis duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~400s
		},
		[]string{"provider"},
	)

	// AI gateway call latency (seconds)
	AICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_call_duration_seconds",
			Help:    "AI gateway call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"operation", "status"}, // operation: summarize, embed, complete
	)
)

// ObserveAnalysis records a completed analysis run.
func ObserveAnalysis(provider string, duration time.Duration) {
	AnalysisDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveAICall records one summarize/embed/complete round trip.
func ObserveAICall(operation, status string, duration time.Duration) {
	AICallDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}
