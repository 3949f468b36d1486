package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing webhook calls with a token bucket so Slack and
// Discord never see us faster than their documented limits. Each notifier
// owns one limiter; a run that fans out to both paces them independently.
type RateLimiter struct {
	bucket *rate.Limiter
}

// NewRateLimiter allows bursts of up to burst calls, refilled at perSecond.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{bucket: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Allow blocks until a token is available or ctx is done. Call it before
// every webhook request.
func (l *RateLimiter) Allow(ctx context.Context) error {
	return l.bucket.Wait(ctx)
}
