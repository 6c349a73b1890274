// Package cache stores resolved token names in Redis so repeated discovery
// runs do not re-query name() for tokens shared by many pairs.
//
// Only successfully resolved names are stored; a name that degraded to the
// NotFound sentinel is never cached.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Namespace entries by chain so mainnet and testnet names never mix.
//	manager := cache.NewManager(redisClient, cache.Config{
//		Namespace: "1",
//		TTL:       24 * time.Hour,
//	})
//
//	name, err := manager.GetName(ctx, token)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// resolve via RPC, then
//		_ = manager.SetName(ctx, token, resolved)
//	}
//
// # Metrics
//
//   - pairscan_name_cache_hits_total (Counter)
//   - pairscan_name_cache_misses_total (Counter)
//   - pairscan_name_cache_size_bytes (Gauge)
//   - pairscan_name_cache_errors_total{operation} (Counter)
package cache
