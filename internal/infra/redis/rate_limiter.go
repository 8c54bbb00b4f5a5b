package redis

import (
	"context"
	"fmt"
	"time"

	"voicebridge/internal/domain/ports/repository"
)

// RateLimiter is the per-user command limiter for the bot surfaces
// (fixed window, counter + expiry). The AI dispatcher has its own
// in-process token bucket; this one protects command spam.
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

func UserCommandKey(userID, command string) string {
	return fmt.Sprintf("rate_limit:%s:%s", userID, command)
}

// Compile-time check
var _ repository.CommandLimiter = (*CommandLimiter)(nil)

// CommandLimiter binds the fixed-window limiter to one (limit, window)
// policy shared by all commands.
type CommandLimiter struct {
	rl     *RateLimiter
	limit  int
	window time.Duration
}

func NewCommandLimiter(client RedisClient, limit int, window time.Duration) *CommandLimiter {
	return &CommandLimiter{rl: NewRateLimiter(client), limit: limit, window: window}
}

func (c *CommandLimiter) Allow(ctx context.Context, userID, command string) (bool, error) {
	return c.rl.Allow(ctx, UserCommandKey(userID, command), c.limit, c.window)
}
