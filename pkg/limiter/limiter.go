// Package limiter paces outbound work, primarily Telegram Bot API
// calls which are capped per second on the server side.
package limiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DynamicRateLimiter is a token-bucket limiter whose rate can be
// changed at runtime, e.g. after the API responds with 429.
type DynamicRateLimiter struct {
	limiter *rate.Limiter
}

// NewDynamicRateLimiter allows one event per interval with the given
// burst capacity.
func NewDynamicRateLimiter(interval time.Duration, burst int) *DynamicRateLimiter {
	return &DynamicRateLimiter{
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
}

// Wait blocks until an event is permitted or ctx is done.
func (l *DynamicRateLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Update replaces the rate and burst. Safe to call concurrently with
// Wait.
func (l *DynamicRateLimiter) Update(interval time.Duration, burst int) {
	l.limiter.SetLimit(rate.Every(interval))
	l.limiter.SetBurst(burst)
}
