package cache

import (
	"context"
	"log"
	"time"

	"github.com/flowgen-ai/gateway/internal/shared/redis"
)

// Redis is the shared Store for multi-instance deployments. Errors from the
// backend are logged and treated as misses so a Redis outage never fails the
// pricing path.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, key)
	if err == redis.ErrNotFound {
		return nil, false
	}
	if err != nil {
		log.Printf("cache: redis get %s: %v", key, err)
		return nil, false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl); err != nil {
		log.Printf("cache: redis set %s: %v", key, err)
	}
}
