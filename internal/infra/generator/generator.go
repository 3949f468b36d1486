// Package generator produces article drafts with AI providers. The Claude and
// OpenAI adapters share retry, circuit breaking, and Prometheus metrics so
// either vendor can back the pipeline without changing its behavior.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"contentforge/internal/domain/entity"
	"contentforge/internal/resilience/circuitbreaker"
	"contentforge/internal/resilience/retry"
	"contentforge/internal/utils/text"
)

const (
	defaultWordTarget = 1200
	defaultLanguage   = "English"

	// generationTimeout bounds one provider call. Long drafts regularly take
	// tens of seconds, so this is deliberately generous.
	generationTimeout = 120 * time.Second
)

// envWordTarget reads GENERATOR_WORD_COUNT. An unset or empty variable means
// the default target; anything else must parse and sit inside the range
// accepted by ValidateWordCount.
func envWordTarget() (int, error) {
	raw := os.Getenv("GENERATOR_WORD_COUNT")
	if raw == "" {
		return defaultWordTarget, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid GENERATOR_WORD_COUNT format: %s: %w", raw, err)
	}
	if err := ValidateWordCount(parsed); err != nil {
		return 0, fmt.Errorf("GENERATOR_WORD_COUNT out of valid range: %w", err)
	}
	return parsed, nil
}

// envLanguage reads GENERATOR_LANGUAGE, defaulting to English.
func envLanguage() string {
	if lang := os.Getenv("GENERATOR_LANGUAGE"); lang != "" {
		return lang
	}
	return defaultLanguage
}

// generateWithGuards runs fn behind the provider's circuit breaker and retry
// policy. service names the provider in logs and error messages.
func generateWithGuards(ctx context.Context, service string, breaker *circuitbreaker.Breaker, policy retry.Config, fn func() (*entity.Draft, error)) (*entity.Draft, error) {
	var draft *entity.Draft

	doErr := retry.Do(ctx, policy, func() error {
		out, err := breaker.Execute(func() (any, error) {
			return fn()
		})
		if circuitbreaker.Rejected(err) {
			slog.Warn("draft generation rejected, circuit breaker open",
				slog.String("service", service),
				slog.String("state", breaker.State().String()))
			return fmt.Errorf("%s unavailable: circuit breaker open", service)
		}
		if err != nil {
			return err
		}

		draft = out.(*entity.Draft)
		return nil
	})
	if doErr != nil {
		return nil, fmt.Errorf("%s draft generation failed after retries: %w", service, doErr)
	}
	return draft, nil
}

// recordDraftOutcome logs the finished draft and feeds the metrics recorder.
// A draft under half the word target counts as off target.
func recordDraftOutcome(ctx context.Context, log *slog.Logger, rec DraftMetricsRecorder, draft *entity.Draft, wordTarget int, elapsed time.Duration) {
	words := text.CountWords(draft.ContentHTML)
	onTarget := words >= wordTarget/2

	log.InfoContext(ctx, "draft generation completed",
		slog.String("title", draft.Title), slog.Int("word_count", words),
		slog.Int("word_target", wordTarget), slog.Bool("on_target", onTarget),
		slog.Duration("duration", elapsed))
	if !onTarget {
		log.WarnContext(ctx, "draft fell short of word target",
			slog.Int("word_count", words), slog.Int("word_target", wordTarget))
	}

	rec.RecordWordCount(words)
	rec.RecordDuration(elapsed)
	rec.RecordCompliance(onTarget)
}
