package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window request counter
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter allows limit hits per key within window
func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	if window < time.Second {
		window = time.Second
	}
	return &RateLimiter{rdb: rdb, limit: limit, window: window}
}

// Allow counts a hit for key. remaining is how many hits are left in the
// current window.
func (r *RateLimiter) Allow(ctx context.Context, key string) (allowed bool, remaining int, err error) {
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(r.window.Seconds()))

	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	count := int(incr.Val())
	if count > r.limit {
		return false, 0, nil
	}
	return true, r.limit - count, nil
}
