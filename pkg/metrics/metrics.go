package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync requests by outcome
	SyncRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_sync_requests_total",
			Help: "Total number of sync requests",
		},
		[]string{"status"}, // status: success, failed
	)

	// Newly ingested records
	RecordsSynced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mail_records_synced_total",
			Help: "Total number of new records persisted by sync",
		},
	)

	// Remote message fetches
	MessageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_message_fetch_total",
			Help: "Total number of remote message fetches",
		},
		[]string{"status"},
	)

	// Fetch batch latency (seconds)
	FetchBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mail_fetch_batch_duration_seconds",
			Help:    "Duration of one concurrent fetch batch",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)

	// Enrichment units by outcome
	EnrichmentJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_enrichment_jobs_total",
			Help: "Total number of enrichment units",
		},
		[]string{"status"}, // status: queued, overflow, success, failed
	)

	// Model calls by operation and outcome
	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_model_calls_total",
			Help: "Total number of generative model calls",
		},
		[]string{"operation", "status"}, // status: success, error, fallback
	)

	// Store operations that took a degraded path
	StoreDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_store_degraded_total",
			Help: "Store operations skipped or degraded because the store is unavailable or failing",
		},
		[]string{"operation"},
	)
)

// RecordSync records the outcome of a sync request
func RecordSync(status string, synced int) {
	SyncRequests.WithLabelValues(status).Inc()
	if synced > 0 {
		RecordsSynced.Add(float64(synced))
	}
}

// RecordFetch records a single remote fetch outcome
func RecordFetch(status string) {
	MessageFetches.WithLabelValues(status).Inc()
}

// RecordFetchBatch records the duration of a fetch batch
func RecordFetchBatch(duration time.Duration) {
	FetchBatchDuration.Observe(duration.Seconds())
}

// RecordEnrichment records an enrichment unit outcome
func RecordEnrichment(status string) {
	EnrichmentJobs.WithLabelValues(status).Inc()
}

// RecordModelCall records a model call outcome
func RecordModelCall(operation, status string) {
	ModelCalls.WithLabelValues(operation, status).Inc()
}

// RecordStoreDegraded records a degraded store operation
func RecordStoreDegraded(operation string) {
	StoreDegraded.WithLabelValues(operation).Inc()
}
