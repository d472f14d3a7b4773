// Package cache provides an optional Redis cache for explorer responses.
//
// Entries hold the unwrapped result member of a successful response, so a hit
// is indistinguishable from a fresh request. How long a result may be reused
// depends on whether it can still change:
//
//   - proxy/eth_blockNumber and stats/* follow the chain head and are never cached
//   - transactions, receipts and blocks looked up by hash use Policy.ImmutableTTL
//   - list queries (account/txlist, logs/getLogs) use Policy.DefaultTTL
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Module:      "account",
//		Action:      "txlist",
//		QueryParams: url.Values{"address": []string{"0x..."}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the explorer, then manager.Set
//	}
//
// # Metrics
//
//   - scan_cache_hits_total{module}
//   - scan_cache_misses_total{module}
//   - scan_cache_errors_total{operation}
//
// # Storage
//
// Each entry is a hash with "data" and "cached_at" (unix milliseconds) fields.
// The key expires at CacheEntry.Expires, so Redis evicts stale entries itself.
package cache
