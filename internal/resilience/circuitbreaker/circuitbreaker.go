// Package circuitbreaker wraps sony/gobreaker with the failure-ratio trip
// rule and the per-dependency presets the infra clients share. A tripped
// breaker rejects calls immediately, so a dying upstream never queues work
// behind timeouts.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config tunes one breaker instance.
type Config struct {
	Name           string        // tags log lines and the readiness report
	HalfOpenProbes uint32        // probes allowed through a half-open breaker
	ResetInterval  time.Duration // how often a closed breaker resets its counts
	Cooldown       time.Duration // wait in the open state before going half-open
	TripRatio      float64       // failure ratio that trips the breaker
	MinSamples     uint32        // sample size below which the ratio is ignored
}

// Defaults suits short-lived API calls that fail fast.
func Defaults(name string) Config {
	return Config{
		Name:           name,
		HalfOpenProbes: 3,
		ResetInterval:  30 * time.Second,
		Cooldown:       time.Minute,
		TripRatio:      0.6,
		MinSamples:     5,
	}
}

// ClaudeConfig tunes a breaker for Anthropic API calls.
func ClaudeConfig() Config { return Defaults("claude-api") }

// OpenAIConfig tunes a breaker for OpenAI API calls.
func OpenAIConfig() Config { return Defaults("openai-api") }

// CMSConfig tunes a breaker for WordPress REST calls. Publishing pauses
// longer; a struggling site needs room to recover.
func CMSConfig() Config {
	out := Defaults("cms-api")
	out.ResetInterval = time.Minute
	out.Cooldown = 2 * time.Minute
	out.TripRatio = 0.7
	return out
}

// FeedConfig tunes a breaker for RSS/Atom fetches. Flaky feeds are normal,
// so the trip threshold sits higher and on a larger sample.
func FeedConfig() Config {
	out := Defaults("feed-fetch")
	out.HalfOpenProbes = 5
	out.ResetInterval = time.Minute
	out.Cooldown = 2 * time.Minute
	out.TripRatio = 0.7
	out.MinSamples = 10
	return out
}

// readyToTrip applies the failure-ratio rule once the sample is large
// enough. gobreaker only consults it after a failure, so Requests is never
// zero here.
func (cfg Config) readyToTrip(counts gobreaker.Counts) bool {
	return counts.Requests >= cfg.MinSamples &&
		float64(counts.TotalFailures) >= cfg.TripRatio*float64(counts.Requests)
}

func logStateChange(name string, from, to gobreaker.State) {
	slog.Warn("circuit state transition",
		slog.String("breaker", name),
		slog.String("from", from.String()), slog.String("to", to.String()))
}

// Breaker is one named circuit around an external dependency.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New builds a breaker that trips on the configured failure ratio and logs
// every state transition.
func New(cfg Config) *Breaker {
	st := gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.HalfOpenProbes,
		Interval:      cfg.ResetInterval,
		Timeout:       cfg.Cooldown,
		ReadyToTrip:   cfg.readyToTrip,
		OnStateChange: logStateChange,
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

// Execute runs fn unless the breaker is open, in which case it returns
// gobreaker.ErrOpenState without calling it.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	return b.cb.Execute(fn)
}

// State reports the underlying gobreaker state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func (b *Breaker) Name() string { return b.cb.Name() }

// IsOpen reports whether calls would currently be rejected.
func (b *Breaker) IsOpen() bool { return b.cb.State() == gobreaker.StateOpen }

// Rejected reports whether err came from an open breaker refusing the call
// rather than from the call itself.
func Rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState)
}
