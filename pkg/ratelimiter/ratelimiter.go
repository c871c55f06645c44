// Package ratelimiter holds per-user cooldowns in Redis.
package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitError matches apperror.ErrRateLimitExceeded with errors.Is.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Is(target error) bool {
	return target == apperror.ErrRateLimitExceeded
}

type Limiter struct {
	rdb *redis.Client
}

// New returns a limiter; a nil client allows everything.
func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb}
}

func key(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}

// Allow starts a cooldown of window for action, or returns a *RateLimitError
// when one is already running.
func (l *Limiter) Allow(ctx context.Context, userID uuid.UUID, action string, window time.Duration) error {
	if l == nil || l.rdb == nil || window <= 0 {
		return nil
	}

	wasSet, err := l.rdb.SetNX(ctx, key(userID, action), "locked", window).Result()
	if err != nil {
		return fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if wasSet {
		return nil
	}

	ttl, _ := l.rdb.TTL(ctx, key(userID, action)).Result()
	return &RateLimitError{
		Message:    fmt.Sprintf("you are doing that too fast. Please wait %.0f seconds", ttl.Seconds()),
		RetryAfter: ttl,
	}
}

// Clear drops a cooldown, e.g. when the guarded action failed.
func (l *Limiter) Clear(ctx context.Context, userID uuid.UUID, action string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, key(userID, action)).Err()
}
