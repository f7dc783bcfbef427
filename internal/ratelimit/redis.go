package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "ratelimit:create"

// Redis is a fixed-window limiter backed by Redis INCR/EXPIRE. It lets
// several instances share one creation quota per IP; single-node deployments
// use Memory instead.
type Redis struct {
	client    *redis.Client
	max       int
	window    time.Duration
	keyPrefix string
}

// NewRedis creates a Redis-backed limiter allowing max actions per window.
func NewRedis(client *redis.Client, max int, window time.Duration) *Redis {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Redis{
		client:    client,
		max:       max,
		window:    window,
		keyPrefix: defaultKeyPrefix,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, int, error) {
	redisKey := r.keyPrefix + ":" + key

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, err
	}

	// Start the window on the first hit.
	if count == 1 {
		r.client.Expire(ctx, redisKey, r.window)
	}

	remaining := r.max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(r.max), remaining, nil
}
