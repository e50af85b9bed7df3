package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter throttles inbound updates with a fixed INCR+EXPIRE window.
// The first hit in a window sets the expiry; the window therefore starts
// at the first update, not at a wall-clock boundary.
type RateLimiter struct {
	client *Client
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		err = r.client.Expire(ctx, key, window)
		if err != nil {
			return false, err
		}
	}

	if count > int64(limit) {
		return false, nil
	}

	return true, nil
}

// UserUpdateKey buckets all of one user's updates into a single counter.
func UserUpdateKey(userID int64) string {
	return fmt.Sprintf("rate_limit:%d", userID)
}
