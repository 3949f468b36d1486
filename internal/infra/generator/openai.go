package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"contentforge/internal/domain/entity"
	"contentforge/internal/resilience/circuitbreaker"
	"contentforge/internal/resilience/retry"
)

// OpenAISettings holds the tunables for the OpenAI draft generator. It
// satisfies ProviderSettings so the provider wiring can stay vendor-agnostic.
type OpenAISettings struct {
	WordCount int           // target article length in words, 300 to 5000
	Language  string        // language articles are written in
	Model     string        // OpenAI model identifier
	Timeout   time.Duration // wall clock limit per generation call
}

func (c *OpenAISettings) GetWordCount() int         { return c.WordCount }
func (c *OpenAISettings) GetLanguage() string       { return c.Language }
func (c *OpenAISettings) GetModel() string          { return c.Model }
func (c *OpenAISettings) GetTimeout() time.Duration { return c.Timeout }

// Validate reports the first unusable field.
func (c *OpenAISettings) Validate() error {
	if err := ValidateWordCount(c.WordCount); err != nil {
		return fmt.Errorf("invalid word target: %w", err)
	}
	switch {
	case c.Language == "":
		return errors.New("language cannot be empty")
	case c.Model == "":
		return errors.New("model cannot be empty")
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be positive: %v", c.Timeout)
	}
	return nil
}

// LoadOpenAISettings builds the configuration from GENERATOR_WORD_COUNT and
// GENERATOR_LANGUAGE. Unlike the Claude loader it fails closed: a malformed
// or out-of-range word target is returned as an error instead of being
// replaced with the default.
func LoadOpenAISettings() (*OpenAISettings, error) {
	target, err := envWordTarget()
	if err != nil {
		return nil, err
	}

	s := &OpenAISettings{
		WordCount: target,
		Language:  envLanguage(),
		Model:     openai.GPT4oMini,
		Timeout:   generationTimeout,
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid openai configuration: %w", err)
	}
	return s, nil
}

// OpenAIDrafter generates drafts through the chat completion API.
type OpenAIDrafter struct {
	client      *openai.Client
	breaker     *circuitbreaker.Breaker
	retryPolicy retry.Config
	cfg         ProviderSettings
	metrics     DraftMetricsRecorder
}

// NewOpenAIDrafter wires an OpenAI generator with its circuit breaker, retry
// policy, and Prometheus metrics.
func NewOpenAIDrafter(apiKey string, cfg ProviderSettings) *OpenAIDrafter {
	slog.Info("openai draft generator configured",
		slog.Int("word_count", cfg.GetWordCount()),
		slog.String("model", cfg.GetModel()))

	return &OpenAIDrafter{
		client:      openai.NewClient(apiKey),
		breaker:     circuitbreaker.New(circuitbreaker.OpenAIConfig()),
		retryPolicy: retry.GenerationConfig(),
		cfg:         cfg,
		metrics:     NewPrometheusDraftMetrics(),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (o *OpenAIDrafter) Breaker() *circuitbreaker.Breaker { return o.breaker }

// GenerateDraft produces a publish-ready draft for the given assignment. For
// rewrite assignments, sourceHTML carries the current article body to refresh;
// it is ignored for new topics.
func (o *OpenAIDrafter) GenerateDraft(ctx context.Context, assignment entity.Assignment, sourceHTML string) (*entity.Draft, error) {
	if err := assignment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assignment: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.GetTimeout())
	defer cancel()

	return generateWithGuards(ctx, "openai api", o.breaker, o.retryPolicy, func() (*entity.Draft, error) {
		return o.doGenerate(ctx, assignment, sourceHTML)
	})
}

// doGenerate performs one API call without retry or circuit breaking.
func (o *OpenAIDrafter) doGenerate(ctx context.Context, assignment entity.Assignment, sourceHTML string) (*entity.Draft, error) {
	target := o.cfg.GetWordCount()
	slog.InfoContext(ctx, "starting draft generation",
		slog.String("assignment", assignment.Label()),
		slog.Int("word_target", target))

	prompt := buildPrompt(promptParams{
		Language:  o.cfg.GetLanguage(),
		WordCount: target,
	}, assignment, sourceHTML)

	req := openai.ChatCompletionRequest{
		Model:    o.cfg.GetModel(),
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
	}

	began := time.Now()
	completion, err := o.client.CreateChatCompletion(ctx, req)
	elapsed := time.Since(began)
	if err != nil {
		slog.ErrorContext(ctx, "draft generation failed",
			slog.Duration("duration", elapsed), slog.Any("error", err))
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(completion.Choices) == 0 {
		slog.ErrorContext(ctx, "openai returned an empty response",
			slog.Duration("duration", elapsed))
		return nil, errors.New("openai api returned empty response")
	}

	draft, err := parseDraft(completion.Choices[0].Message.Content)
	if err != nil {
		o.metrics.RecordParseFailure()
		slog.ErrorContext(ctx, "openai response could not be parsed into a draft",
			slog.Duration("duration", elapsed), slog.Any("error", err))
		return nil, fmt.Errorf("openai response parse error: %w", err)
	}
	draft.Model = o.cfg.GetModel()
	draft.GeneratedAt = time.Now()

	recordDraftOutcome(ctx, slog.Default(), o.metrics, draft, target, elapsed)
	return draft, nil
}
