package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SyncTotal      *prometheus.CounterVec
	SyncDuration   prometheus.Histogram
	RowsWritten    *prometheus.CounterVec
	EmptySnapshots prometheus.Counter
	DiscardedCodes prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SyncTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_sync_total",
				Help: "Total number of rate cache synchronizations",
			},
			[]string{"mode", "result"},
		),

		SyncDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rate_sync_duration_seconds",
				Help:    "Rate cache synchronization duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		RowsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_sync_rows_written_total",
				Help: "Total number of rate rows inserted or updated",
			},
			[]string{"mode"},
		),

		EmptySnapshots: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_fetch_empty_snapshots_total",
				Help: "Total number of fetches that returned no rates",
			},
		),

		DiscardedCodes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_sync_discarded_codes_total",
				Help: "Total number of fetched currency codes outside the allow-list",
			},
		),
	}
}
