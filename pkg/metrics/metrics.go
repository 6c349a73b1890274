// Package metrics provides the Prometheus registry and HTTP exposition for
// pairscan. All metrics are defined in their respective packages (client,
// batch, discovery, cache) to maintain modularity and avoid circular
// dependencies.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the default Prometheus registry used by pairscan.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler exposing all registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Metrics server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Metrics Documentation
//
// Node Metrics (pkg/client):
//   - pairscan_rpc_calls_total{selector, status} (Counter): eth_call requests by 4-byte selector and outcome
//   - pairscan_rpc_call_duration_seconds{selector} (Histogram): eth_call duration
//   - pairscan_rpc_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, timeout, revert)
//
// Batch Metrics (pkg/batch):
//   - pairscan_batch_flushes_total{trigger} (Counter): Flushes by trigger (auto, manual)
//   - pairscan_batch_flush_duration_seconds (Histogram): Flush duration
//   - pairscan_batch_tasks_total (Counter): Tasks executed
//   - pairscan_batch_flush_failures_total (Counter): Failed flushes
//
// Discovery Metrics (pkg/discovery):
//   - pairscan_pairs_discovered_total (Counter): Pair records produced
//   - pairscan_degraded_fields_total{field} (Counter): Fields that fell back to NotFound
//
// Cache Metrics (pkg/cache):
//   - pairscan_name_cache_hits_total (Counter): Token name cache hits
//   - pairscan_name_cache_misses_total (Counter): Token name cache misses
//   - pairscan_name_cache_size_bytes (Gauge): Bytes written to the cache
//   - pairscan_name_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Degraded field ratio
//   sum(rate(pairscan_degraded_fields_total[5m])) /
//   (4 * rate(pairscan_pairs_discovered_total[5m]))
//
//   # Node error rate by class
//   rate(pairscan_rpc_errors_total[5m])
//
//   # P95 call latency
//   histogram_quantile(0.95, rate(pairscan_rpc_call_duration_seconds_bucket[5m]))
//
//   # Name cache hit rate
//   rate(pairscan_name_cache_hits_total[5m]) /
//   (rate(pairscan_name_cache_hits_total[5m]) + rate(pairscan_name_cache_misses_total[5m]))
