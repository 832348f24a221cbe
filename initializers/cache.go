package initializers

import (
	"context"
	"os"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/cache"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"github.com/redis/go-redis/v9"
)

var Cache cache.Store

// ConnectToCache wires the cache store. Without REDIS_ADDR the process falls
// back to an in-memory store, which is fine for a single instance.
func ConnectToCache() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		utils.Log.Info("REDIS_ADDR not set, using in-memory cache")
		Cache = cache.NewMemoryStore()
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		utils.Log.WithError(err).Fatal("Failed to connect to redis")
	}

	Cache = cache.NewRedisStore(client)
}
