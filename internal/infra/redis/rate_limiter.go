package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

// Take counts one hit. justDenied is true only for the first hit over the
// limit in a window, so callers can warn once instead of on every message.
func (r *RateLimiter) Take(ctx context.Context, key string, limit int, window time.Duration) (allowed, justDenied bool, err error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, false, err
	}

	if count == 1 {
		err = r.client.Expire(ctx, key, window)
		if err != nil {
			return false, false, err
		}
	}

	if count > int64(limit) {
		return false, count == int64(limit)+1, nil
	}

	return true, false, nil
}

func UserCommandKey(userID int64, command string) string {
	return fmt.Sprintf("rate_limit:%d:%s", userID, command)
}
