package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Storage routing and archival metrics
var (
	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photovault",
			Subsystem: "storage",
			Name:      "uploads_total",
			Help:      "Total photo uploads by tier and status",
		},
		[]string{"tier", "status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photovault",
			Subsystem: "storage",
			Name:      "upload_bytes_total",
			Help:      "Total compressed bytes written per tier",
		},
		[]string{"tier"},
	)

	// Fallback transitions between tiers
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photovault",
			Subsystem: "storage",
			Name:      "fallbacks_total",
			Help:      "Tier fallback transitions during routing",
		},
		[]string{"from", "to"},
	)

	// Provider operations counter
	ProviderOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photovault",
			Subsystem: "storage",
			Name:      "provider_operations_total",
			Help:      "Total provider operations",
		},
		[]string{"provider", "operation", "status"},
	)

	// Provider operation duration
	ProviderOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photovault",
			Subsystem: "storage",
			Name:      "provider_operation_duration_seconds",
			Help:      "Provider operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	// Tier usage gauges
	TierUsedBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "photovault",
			Subsystem: "storage",
			Name:      "tier_used_bytes",
			Help:      "Bytes consumed per tier as tracked by the usage accountant",
		},
		[]string{"tier"},
	)

	TierCapacityBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "photovault",
			Subsystem: "storage",
			Name:      "tier_capacity_bytes",
			Help:      "Configured capacity ceiling per tier",
		},
		[]string{"tier"},
	)

	// Archive job counters
	ArchiveJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photovault",
			Subsystem: "archive",
			Name:      "jobs_total",
			Help:      "Archive jobs by terminal status",
		},
		[]string{"status"},
	)

	ArchivePhotosTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photovault",
			Subsystem: "archive",
			Name:      "photos_total",
			Help:      "Per-photo archive outcomes",
		},
		[]string{"status"},
	)

	// Thumbnail generation counter
	ThumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photovault",
			Subsystem: "storage",
			Name:      "thumbnails_total",
			Help:      "Thumbnail generation attempts",
		},
		[]string{"status"},
	)
)

// RecordUpload records an upload outcome for a tier.
func RecordUpload(tier, status string, bytes int64) {
	UploadsTotal.WithLabelValues(tier, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(tier).Add(float64(bytes))
	}
}

// RecordFallback records a cascade transition between tiers.
func RecordFallback(from, to string) {
	FallbacksTotal.WithLabelValues(from, to).Inc()
}

// RecordProviderOp records a provider operation with its duration.
func RecordProviderOp(provider, operation, status string, durationSec float64) {
	ProviderOpsTotal.WithLabelValues(provider, operation, status).Inc()
	ProviderOpDuration.WithLabelValues(provider, operation).Observe(durationSec)
}

// SetTierUsage updates the usage gauges for a tier.
func SetTierUsage(tier string, used, capacity int64) {
	TierUsedBytes.WithLabelValues(tier).Set(float64(used))
	TierCapacityBytes.WithLabelValues(tier).Set(float64(capacity))
}
