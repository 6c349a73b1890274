package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks token name cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pairscan_name_cache_hits_total",
			Help: "Total number of token name cache hits",
		},
	)

	// CacheMisses tracks token name cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pairscan_name_cache_misses_total",
			Help: "Total number of token name cache misses",
		},
	)

	// CacheSize tracks bytes written to the cache
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pairscan_name_cache_size_bytes",
			Help: "Bytes of token name entries written to the cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairscan_name_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
