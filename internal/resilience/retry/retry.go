// Package retry provides retry logic with rate-limit aware exponential backoff.
// Rate-limited calls back off exponentially with jitter; any other failure is
// retried after a short flat delay until the attempt budget is spent.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// Config holds the configuration for retry logic.
type Config struct {
	Attempts     int           // total attempts, including the first call
	InitialDelay time.Duration // backoff after the first rate-limited attempt
	MaxDelay     time.Duration // cap on the exponential backoff
	Jitter       time.Duration // upper bound of the random extra wait
	FlatDelay    time.Duration // fixed wait before retrying other failures
}

// Defaults returns the generation profile, the most conservative one.
func Defaults() Config {
	return GenerationConfig()
}

// GenerationConfig returns configuration for AI generation calls.
// Moderate attempt budget due to cost considerations; generous backoff
// because vendor rate limits recover on the order of seconds.
func GenerationConfig() Config {
	return Config{Attempts: 3, InitialDelay: 2 * time.Second, MaxDelay: 30 * time.Second,
		Jitter: time.Second, FlatDelay: time.Second}
}

// PublishConfig returns configuration for CMS publish calls.
// Slightly larger budget; publishing is cheap compared to generation.
func PublishConfig() Config {
	return Config{Attempts: 4, InitialDelay: time.Second, MaxDelay: 15 * time.Second,
		Jitter: 500 * time.Millisecond, FlatDelay: time.Second}
}

// FeedConfig returns configuration for RSS feed fetching.
func FeedConfig() Config {
	return Config{Attempts: 3, InitialDelay: time.Second, MaxDelay: 10 * time.Second,
		Jitter: 500 * time.Millisecond, FlatDelay: 500 * time.Millisecond}
}

// Do executes the given function until it succeeds or the attempt budget is
// exhausted. Rate-limited failures wait InitialDelay * 2^attemptIndex plus
// random jitter before the next attempt; every other failure waits the flat
// delay and is retried as well. Exponential backoff is reserved for confirmed
// rate limits so that ordinary transient failures recover quickly. No wait
// occurs after the final attempt.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	var last error

	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		// キャンセル済みなら呼び出す前に打ち切る
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}

		if last = fn(); last == nil {
			if attempt != 1 {
				slog.Info("call recovered after retry", slog.Int("attempt", attempt))
			}
			return nil
		}

		if attempt == cfg.Attempts {
			break
		}

		delay, rateLimited := nextDelay(cfg, attempt, last)
		slog.Warn("call failed, will retry", slog.Any("error", last),
			slog.Int("attempt", attempt), slog.Int("max_attempts", cfg.Attempts),
			slog.Bool("rate_limited", rateLimited), slog.Duration("delay", delay))
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", cfg.Attempts, last)
}

// nextDelay picks the wait before the next attempt: exponential backoff for
// confirmed rate limits, the flat delay for everything else.
func nextDelay(cfg Config, attempt int, err error) (time.Duration, bool) {
	if IsRateLimit(err) {
		return backoffDelay(cfg, attempt-1), true
	}
	return cfg.FlatDelay, false
}

// sleep waits for d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRateLimit reports whether an error indicates the caller exceeded a
// provider's request rate. A typed StatusError is classified by its status
// code alone; untyped errors match on a "429" or case-insensitive
// "rate limit" substring.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}

	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.StatusCode == http.StatusTooManyRequests
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}

// StatusError represents an HTTP error with status code.
type StatusError struct {
	StatusCode int    // status returned by the upstream
	Message    string // response body or status text
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Message)
}

// backoffDelay returns the exponential backoff wait for a zero-based attempt
// index: InitialDelay * 2^index, capped at MaxDelay, plus random jitter.
func backoffDelay(cfg Config, index int) time.Duration {
	d := cfg.InitialDelay
	for range index {
		d *= 2
		if cfg.MaxDelay > 0 && d >= cfg.MaxDelay {
			break
		}
	}
	if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	return d + jitter(cfg.Jitter)
}

// jitter returns a random duration in [0, upper) to prevent thundering herd.
func jitter(upper time.Duration) time.Duration {
	var extra time.Duration
	if upper > 0 {
		// #nosec G404 -- jitter does not need cryptographic randomness
		extra = time.Duration(rand.Int63n(int64(upper)))
	}
	return extra
}
