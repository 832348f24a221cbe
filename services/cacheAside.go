package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/cache"
	"github.com/b9aurav/marketplace-api-sub000/utils"
)

// cacheRead fills out from the cache and reports whether it was a hit.
// Cache-layer errors are logged and treated as misses.
func cacheRead(ctx context.Context, store cache.Store, key string, out any) bool {
	val, ok, err := store.Get(ctx, key)
	if err != nil {
		utils.Log.WithError(err).WithField("key", key).Warn("Cache read failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		utils.Log.WithError(err).WithField("key", key).Warn("Cache entry corrupt, recomputing")
		return false
	}
	return true
}

// cacheWrite stores value under key. A failed write never fails the caller.
func cacheWrite(ctx context.Context, store cache.Store, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		utils.Log.WithError(err).WithField("key", key).Warn("Cache marshal failed")
		return
	}
	if err := store.Set(ctx, key, string(data), ttl); err != nil {
		utils.Log.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

// invalidate removes the given keys and patterns. Invalidation errors are
// bounded by TTL anyway, so they are logged and swallowed.
func invalidate(ctx context.Context, store cache.Store, keys []string, patterns []string) {
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			utils.Log.WithError(err).WithField("key", key).Warn("Cache invalidation failed")
		}
	}
	for _, pattern := range patterns {
		if err := store.DeletePattern(ctx, pattern); err != nil {
			utils.Log.WithError(err).WithField("pattern", pattern).Warn("Cache invalidation failed")
		}
	}
}
