package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"contentforge/internal/domain/entity"
	"contentforge/internal/resilience/circuitbreaker"
	"contentforge/internal/resilience/retry"
)

// ClaudeSettings holds the tunables for the Claude draft generator.
type ClaudeSettings struct {
	WordCount int           // target article length in words, 300 to 5000
	Language  string        // language articles are written in
	Model     string        // Claude model identifier
	MaxTokens int           // response token ceiling
	Timeout   time.Duration // wall clock limit per generation call
}

// LoadClaudeSettings builds the configuration from GENERATOR_WORD_COUNT and
// GENERATOR_LANGUAGE. A malformed or out-of-range word target logs a warning
// and falls back to the default rather than failing startup.
func LoadClaudeSettings() ClaudeSettings {
	target, err := envWordTarget()
	if err != nil {
		slog.Warn("unusable GENERATOR_WORD_COUNT, falling back to default",
			slog.Any("error", err), slog.Int("default", defaultWordTarget))
		target = defaultWordTarget
	}

	return ClaudeSettings{
		WordCount: target,
		Language:  envLanguage(),
		Model:     string(anthropic.ModelClaudeSonnet4_5_20250929),
		MaxTokens: 8192,
		Timeout:   generationTimeout,
	}
}

// ClaudeDrafter generates drafts through Anthropic's Messages API.
type ClaudeDrafter struct {
	client      anthropic.Client
	breaker     *circuitbreaker.Breaker
	retryPolicy retry.Config
	cfg         ClaudeSettings
	metrics     DraftMetricsRecorder
}

// NewClaudeDrafter wires a Claude generator with its circuit breaker, retry
// policy, and Prometheus metrics.
func NewClaudeDrafter(apiKey string) *ClaudeDrafter {
	cfg := LoadClaudeSettings()

	slog.Info("claude draft generator configured",
		slog.Int("word_count", cfg.WordCount),
		slog.String("language", cfg.Language),
		slog.String("model", cfg.Model))

	return &ClaudeDrafter{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		breaker:     circuitbreaker.New(circuitbreaker.ClaudeConfig()),
		retryPolicy: retry.GenerationConfig(),
		cfg:         cfg,
		metrics:     NewPrometheusDraftMetrics(),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (c *ClaudeDrafter) Breaker() *circuitbreaker.Breaker { return c.breaker }

// GenerateDraft produces a publish-ready draft for the given assignment. For
// rewrite assignments, sourceHTML carries the current article body to refresh;
// it is ignored for new topics.
func (c *ClaudeDrafter) GenerateDraft(ctx context.Context, assignment entity.Assignment, sourceHTML string) (*entity.Draft, error) {
	if err := assignment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assignment: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	return generateWithGuards(ctx, "claude api", c.breaker, c.retryPolicy, func() (*entity.Draft, error) {
		return c.doGenerate(ctx, assignment, sourceHTML)
	})
}

// doGenerate performs one API call without retry or circuit breaking.
func (c *ClaudeDrafter) doGenerate(ctx context.Context, assignment entity.Assignment, sourceHTML string) (*entity.Draft, error) {
	log := slog.With(slog.String("request_id", uuid.NewString()))
	log.InfoContext(ctx, "starting draft generation",
		slog.String("assignment", assignment.Label()),
		slog.Int("word_target", c.cfg.WordCount))

	prompt := buildPrompt(promptParams{
		Language:  c.cfg.Language,
		WordCount: c.cfg.WordCount,
	}, assignment, sourceHTML)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	}

	began := time.Now()
	reply, err := c.client.Messages.New(ctx, params)
	elapsed := time.Since(began)
	if err != nil {
		log.ErrorContext(ctx, "draft generation failed",
			slog.Duration("duration", elapsed), slog.Any("error", err))
		return nil, fmt.Errorf("claude api error: %w", err)
	}

	body, err := draftText(reply)
	if err != nil {
		log.ErrorContext(ctx, "claude returned an unusable response",
			slog.Duration("duration", elapsed), slog.Any("error", err))
		return nil, err
	}

	draft, err := parseDraft(body)
	if err != nil {
		c.metrics.RecordParseFailure()
		log.ErrorContext(ctx, "claude response could not be parsed into a draft",
			slog.Duration("duration", elapsed), slog.Any("error", err))
		return nil, fmt.Errorf("claude response parse error: %w", err)
	}
	draft.Model = c.cfg.Model
	draft.GeneratedAt = time.Now()

	recordDraftOutcome(ctx, log, c.metrics, draft, c.cfg.WordCount, elapsed)
	return draft, nil
}

// draftText pulls the text block out of a Claude message.
func draftText(reply *anthropic.Message) (string, error) {
	if len(reply.Content) == 0 {
		return "", errors.New("claude api returned empty response")
	}
	block, ok := reply.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", errors.New("claude api returned unexpected response type")
	}
	return block.Text, nil
}
