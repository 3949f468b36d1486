package http

import (
	"context"
	"log/slog"
	"time"

	"contentforge/internal/handler/http/middleware"
	"contentforge/pkg/config"
)

// StartRateLimitCleanup periodically evicts idle entries from a
// middleware.RateLimiter until ctx is cancelled.
//
// The limiter keeps a timestamp slice per client IP, so one-off clients
// would otherwise stay in the map forever. Run this as a goroutine next
// to the server; it exits on shutdown.
func StartRateLimitCleanup(ctx context.Context, limiter *middleware.RateLimiter, interval time.Duration, limiterType string) {
	log := slog.With(slog.String("limiter_type", limiterType))
	log.Info("rate limit cleanup started", slog.Duration("interval", interval))

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			limiter.EvictIdle()
			log.Debug("rate limit cleanup completed")

		case <-ctx.Done():
			log.Info("rate limit cleanup stopped")
			return
		}
	}
}

const defaultCleanupInterval = 5 * time.Minute

// LoadCleanupInterval reads RATELIMIT_CLEANUP_INTERVAL (e.g. "5m", "10m")
// and falls back to five minutes on missing or bad values.
func LoadCleanupInterval() time.Duration {
	return config.EnvDuration("RATELIMIT_CLEANUP_INTERVAL", defaultCleanupInterval)
}
