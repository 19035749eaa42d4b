// Package metrics exposes the scheduler's prometheus collectors.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ingestq.io/ingestq/internal/domain"
)

// Ingestion Metrics
var (
	// IngestionsCreatedTotal counts accepted submissions by priority
	IngestionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestq_ingestions_created_total",
			Help: "Total ingestions accepted, by priority",
		},
		[]string{"priority"},
	)

	// BatchTransitionsTotal counts batch status transitions by target status
	BatchTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestq_batch_transitions_total",
			Help: "Total batch status transitions, by resulting status",
		},
		[]string{"status"},
	)

	// Batches reports the current number of batches per status
	Batches = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ingestq_batches",
			Help: "Current number of batches, by status",
		},
		[]string{"status"},
	)
)

// Drain Metrics
var (
	// DrainTicksTotal counts drain loop ticks
	DrainTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestq_drain_ticks_total",
			Help: "Total drain loop ticks",
		},
	)

	// BatchProcessingDurationSeconds measures batch processing time including retries
	BatchProcessingDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingestq_batch_processing_duration_seconds",
			Help:    "Time spent processing one batch, retries included",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	// BatchProcessingFailedAttemptsTotal counts failed processing attempts, retried or not
	BatchProcessingFailedAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestq_batch_processing_failed_attempts_total",
			Help: "Total failed batch processing attempts",
		},
	)
)

// ObserveEvent is a domain.EventHandler that counts creations and transitions.
func ObserveEvent(_ context.Context, event *domain.DomainEvent) error {
	switch event.EventType {
	case domain.EventIngestionCreated:
		if event.Ingestion != nil {
			IngestionsCreatedTotal.WithLabelValues(event.Ingestion.Priority.String()).Inc()
		}
	case domain.EventBatchTriggered, domain.EventBatchCompleted, domain.EventBatchFailed:
		if event.Batch != nil {
			BatchTransitionsTotal.WithLabelValues(string(event.Batch.Status.Label())).Inc()
		}
	}
	return nil
}

// ObserveProcessing records the duration of one batch processing run.
func ObserveProcessing(d time.Duration) {
	BatchProcessingDurationSeconds.Observe(d.Seconds())
}

// SetBatchCounts publishes per-status batch counts.
func SetBatchCounts(notStarted, triggered, completed, failed int) {
	Batches.WithLabelValues(string(domain.StatusYetToStart)).Set(float64(notStarted))
	Batches.WithLabelValues(string(domain.StatusTriggered)).Set(float64(triggered))
	Batches.WithLabelValues(string(domain.StatusCompleted)).Set(float64(completed))
	Batches.WithLabelValues(string(domain.StatusFailed)).Set(float64(failed))
}
