package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pairsDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairscan_pairs_discovered_total",
		Help: "Total pair records produced",
	})

	degradedFields = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairscan_degraded_fields_total",
		Help: "Total record fields that fell back to NotFound",
	}, []string{"field"}) // "pair_name", "token0", "token1", "token_name"
)
