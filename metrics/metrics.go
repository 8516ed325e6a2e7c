// Package metrics exposes the prometheus collectors of both services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	HourLogReviewCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hour_log_review_count",
			Help: "Total number of hour log reviews",
		},
		[]string{"slot", "decision"},
	)

	HourLogApprovedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hour_log_approved_count",
			Help: "Total number of hour logs that reached APPROVED",
		},
	)

	CompletionTriggerCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_trigger_count",
			Help: "Certificate generation requests sent on placement completion",
		},
		[]string{"outcome"}, // outcome: success, failed
	)

	CompletionTriggerLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "completion_trigger_latency_seconds",
			Help:    "Latency of the certificate generation request",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	CertificateTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certificate_transition_count",
			Help: "Certificate state changes",
		},
		[]string{"status"},
	)

	EnrichmentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certificate_enrichment_count",
			Help: "Certificate enrichment attempts",
		},
		[]string{"outcome"}, // outcome: enriched, unchanged, failed
	)

	PlacementTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placement_transition_count",
			Help: "Placement status changes",
		},
		[]string{"from", "to"},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementHourLogReview(slot, decision string) {
	HourLogReviewCount.WithLabelValues(slot, decision).Inc()
}

func RecordCompletionTrigger(outcome string, duration time.Duration) {
	CompletionTriggerCount.WithLabelValues(outcome).Inc()
	CompletionTriggerLatency.Observe(duration.Seconds())
}

func IncrementCertificateTransition(status string) {
	CertificateTransitionCount.WithLabelValues(status).Inc()
}

func IncrementEnrichment(outcome string) {
	EnrichmentCount.WithLabelValues(outcome).Inc()
}

func IncrementPlacementTransition(from, to string) {
	PlacementTransitionCount.WithLabelValues(from, to).Inc()
}
