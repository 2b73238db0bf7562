// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firm_sync_runs_completed_total",
			Help: "Total number of completed synchronization runs",
		},
		[]string{"operation"},
	)

	SyncRunsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firm_sync_runs_failed_total",
			Help: "Total number of failed synchronization runs",
		},
		[]string{"operation", "error_code"},
	)

	CMSPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "firm_sync_cms_publish_duration_seconds",
			Help: "Duration of CMS publish round trips",
		},
		[]string{"method"},
	)

	IndexRoundTripDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "firm_sync_index_roundtrip_duration_seconds",
			Help: "Duration of search index read/write round trips",
		},
		[]string{"operation"},
	)
)
