package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/flowgen-ai/gateway/internal/shared/redis"
)

// Redis is the shared Limiter for multi-instance deployments. It fails open:
// if the backend is unreachable the call is allowed, since a broken limiter
// must not take the pricing path down with it.
type Redis struct {
	client     *redis.Client
	limit      int
	windowSize time.Duration
}

// NewRedis creates a Redis-backed limiter.
func NewRedis(client *redis.Client, limit int, windowSize time.Duration) *Redis {
	return &Redis{client: client, limit: limit, windowSize: windowSize}
}

func (r *Redis) Allow(ctx context.Context, clientKey string) bool {
	count, err := r.client.FixedWindowIncr(ctx, "ratelimit:"+clientKey, r.windowSize)
	if err != nil {
		log.Printf("ratelimit: redis incr %s: %v", clientKey, err)
		return true
	}
	return count <= int64(r.limit)
}
