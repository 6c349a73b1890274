package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchFlushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairscan_batch_flushes_total",
		Help: "Total batch flushes by trigger",
	}, []string{"trigger"}) // "auto", "manual"

	batchFlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pairscan_batch_flush_duration_seconds",
		Help:    "Batch flush duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	batchTasks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairscan_batch_tasks_total",
		Help: "Total tasks executed by batch flushes",
	})

	batchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairscan_batch_flush_failures_total",
		Help: "Total batch flushes that failed",
	})
)
