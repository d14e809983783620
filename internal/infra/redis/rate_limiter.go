package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter. One key per caller per window; the
// first increment arms the expiry.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}

// SubmitKey scopes the submit-rate window to one client address.
func SubmitKey(clientAddr string) string {
	return fmt.Sprintf("rate_limit:submit:%s", clientAddr)
}
