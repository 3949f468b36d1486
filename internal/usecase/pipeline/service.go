// Package pipeline runs batches of assignments end to end: collect source
// material, generate a draft, publish it to the CMS. Assignments drain
// through the sequential queue so only one generation is ever in flight,
// and one failing assignment never aborts the rest of the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"contentforge/internal/domain/entity"
	"contentforge/internal/infra/extract"
	"contentforge/internal/infra/notifier"
	"contentforge/internal/infra/wordpress"
	"contentforge/internal/observability/logging"
	"contentforge/internal/observability/metrics"
	"contentforge/internal/observability/tracing"
	"contentforge/internal/queue"
	"contentforge/internal/utils/text"
)

// Generator produces a draft article for one assignment. sourceHTML is the
// extracted body of the existing post for rewrites, empty for new topics.
type Generator interface {
	GenerateDraft(ctx context.Context, assignment entity.Assignment, sourceHTML string) (*entity.Draft, error)
}

// Publisher reads and writes posts on the CMS.
type Publisher interface {
	GetPost(ctx context.Context, id int64) (*wordpress.PostContent, error)
	CreatePost(ctx context.Context, params wordpress.PostParams) (*entity.Post, error)
	UpdatePost(ctx context.Context, id int64, params wordpress.PostParams) (*entity.Post, error)
	ListCategories(ctx context.Context) ([]wordpress.Term, error)
	ListTags(ctx context.Context) ([]wordpress.Term, error)
}

// Extractor pulls readable content from a live page, used as the rewrite
// source when the CMS copy of a post cannot be fetched.
type Extractor interface {
	ExtractFromURL(ctx context.Context, pageURL string) (*extract.Content, error)
}

// Options controls one pipeline run.
type Options struct {
	// DryRun generates drafts without touching the CMS.
	DryRun bool

	// Delay paces consecutive assignments; queue.DefaultDelay when zero.
	Delay time.Duration

	// Status is the CMS status for published drafts; defaults to draft so
	// a human reviews before anything goes live.
	Status entity.PostStatus
}

// Runner drives the batch generation use case.
type Runner struct {
	Generator Generator
	Publisher Publisher
	Extractor Extractor
	Notifier  notifier.Notifier
}

// NewRunner wires up a pipeline runner. Generator is required; Publisher is
// required for live runs; Extractor and Notifier may be nil.
func NewRunner(gen Generator, pub Publisher, ext Extractor, notify notifier.Notifier) *Runner {
	return &Runner{
		Generator: gen,
		Publisher: pub,
		Extractor: ext,
		Notifier:  notify,
	}
}

// outcome is what one successfully settled assignment carries.
type outcome struct {
	draft *entity.Draft
	post  *entity.Post
}

// Run drains the assignments through the sequential queue and returns a
// report with one entry per assignment, in input order. Per-item failures
// are captured in the report, not returned; the error return covers only
// run-level problems: missing dependencies, or entity.ErrNoAssignments for
// an empty batch. A configured notifier receives the run summary best-effort
// after the batch settles.
func (r *Runner) Run(ctx context.Context, assignments []entity.Assignment, opts Options) (*Report, error) {
	if r.Generator == nil {
		return nil, errors.New("generator is not configured")
	}
	if !opts.DryRun && r.Publisher == nil {
		return nil, errors.New("live runs require a cms client: enable dry run or configure credentials")
	}
	if len(assignments) == 0 {
		return nil, entity.ErrNoAssignments
	}

	runID := uuid.New().String()
	began := time.Now()
	logger := logging.WithRun(slog.Default(), runID)

	ctx, span := tracing.StartSpan(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(attribute.String("run.id", runID),
		attribute.Int("run.assignments", len(assignments)),
		attribute.Bool("run.dry_run", opts.DryRun))

	logger.Info("pipeline run started",
		slog.Int("assignments", len(assignments)),
		slog.Bool("dry_run", opts.DryRun))

	terms := r.loadTerms(ctx, opts, logger)

	delay := opts.Delay
	if delay <= 0 {
		delay = queue.DefaultDelay
	}

	generated := 0
	results := queue.Process(ctx, assignments,
		func(ctx context.Context, a entity.Assignment) (*outcome, error) {
			out, err := r.processAssignment(ctx, a, opts, terms)
			if err == nil || (out != nil && out.draft != nil) {
				generated++
			}
			return out, err
		},
		func(res queue.Result[entity.Assignment, *outcome]) {
			label := res.Item.Label()
			if res.Success {
				logger.Info("assignment completed",
					slog.Int("index", res.Index),
					slog.String("assignment", label))
			} else {
				logger.Warn("assignment failed",
					slog.Int("index", res.Index),
					slog.String("assignment", label),
					slog.Any("error", res.Err))
			}
			metrics.RecordAssignmentProcessed(string(res.Item.Kind), res.Success)
		},
		delay)

	report := buildReport(runID, began, opts.DryRun, generated, results)
	metrics.RecordRunCompleted(report.Status(), report.Duration)
	if report.Failed > 0 {
		tracing.FlagError(span)
	}

	logger.Info("pipeline run completed",
		slog.String("status", report.Status()),
		slog.Int("generated", report.Generated),
		slog.Int("published", report.Published),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration))

	// The notification must go out even when the run context expired.
	if r.Notifier != nil {
		if err := r.Notifier.NotifyRun(context.WithoutCancel(ctx), report.Summary()); err != nil {
			logger.Warn("failed to send run notification", slog.Any("error", err))
		}
	}

	return report, nil
}

// processAssignment takes one assignment through its stages. The returned
// outcome carries the draft even when a later stage fails, so the run can
// count generations separately from publishes.
func (r *Runner) processAssignment(ctx context.Context, a entity.Assignment, opts Options, terms *termSet) (*outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.assignment")
	defer span.End()
	span.SetAttributes(attribute.String("assignment.kind", string(a.Kind)))

	if err := a.Validate(); err != nil {
		return nil, err
	}

	sourceHTML := r.collectSource(ctx, a)

	genStart := time.Now()
	draft, err := r.Generator.GenerateDraft(ctx, a, sourceHTML)
	if err != nil {
		tracing.FlagError(span)
		return nil, fmt.Errorf("generate draft: %w", err)
	}
	metrics.RecordGenerationDuration(time.Since(genStart))

	if err := draft.Validate(); err != nil {
		return &outcome{draft: draft}, fmt.Errorf("generated draft is not publishable: %w", err)
	}

	if opts.DryRun {
		return &outcome{draft: draft}, nil
	}

	post, err := r.publishDraft(ctx, a, draft, opts, terms)
	if err != nil {
		tracing.FlagError(span)
		return &outcome{draft: draft}, err
	}
	return &outcome{draft: draft, post: post}, nil
}

// collectSource gathers rewrite source material. The CMS copy is
// authoritative; a live-page extraction is the fallback; failing both, the
// generator works from the post title and excerpt alone. New-topic
// assignments carry no source.
func (r *Runner) collectSource(ctx context.Context, a entity.Assignment) string {
	if a.Kind != entity.AssignmentRewrite || a.Post == nil {
		return ""
	}

	ctx, span := tracing.StartSpan(ctx, "pipeline.collect_source")
	defer span.End()

	if r.Publisher != nil {
		content, err := r.Publisher.GetPost(ctx, a.Post.ID)
		if err == nil && content.ContentHTML != "" {
			return content.ContentHTML
		}
		switch {
		case errors.Is(err, entity.ErrNotFound):
			slog.Warn("post no longer exists on cms, trying live page",
				slog.Int64("post_id", a.Post.ID))
		case err != nil:
			slog.Warn("failed to fetch post content from cms, trying live page",
				slog.Int64("post_id", a.Post.ID), slog.Any("error", err))
		}
	}

	if r.Extractor != nil && a.Post.Link != "" {
		content, err := r.Extractor.ExtractFromURL(ctx, a.Post.Link)
		if err == nil {
			return content.HTML
		}
		slog.Warn("failed to extract live page, rewriting without source",
			slog.String("url", a.Post.Link), slog.Any("error", err))
	}

	return ""
}

// excerptMaxRunes sizes derived excerpts to fit a meta description.
const excerptMaxRunes = 160

// publishDraft writes the draft to the CMS: update for rewrites, create for
// new topics.
func (r *Runner) publishDraft(ctx context.Context, a entity.Assignment, draft *entity.Draft, opts Options, terms *termSet) (*entity.Post, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.publish")
	defer span.End()

	status := opts.Status
	if status == "" {
		status = entity.PostStatusDraft
	}

	excerpt := draft.Excerpt
	if excerpt == "" {
		// モデルが抜粋を返さなかったら本文から作る
		excerpt = text.Excerpt(extract.PlainText(draft.ContentHTML), excerptMaxRunes)
	}

	params := wordpress.PostParams{
		Title:      draft.Title,
		Slug:       draft.Slug,
		Content:    draft.ContentHTML,
		Excerpt:    excerpt,
		Status:     status,
		Categories: terms.matchCategories(draft.Categories),
		Tags:       terms.matchTags(draft.Tags),
	}

	pubStart := time.Now()
	var post *entity.Post
	var err error
	if a.Kind == entity.AssignmentRewrite {
		// Keep permalinks stable on rewrites.
		params.Slug = ""
		post, err = r.Publisher.UpdatePost(ctx, a.Post.ID, params)
	} else {
		post, err = r.Publisher.CreatePost(ctx, params)
	}
	metrics.RecordPublishAttempt(err == nil, time.Since(pubStart))

	if err != nil {
		return nil, fmt.Errorf("publish draft: %w", err)
	}
	return post, nil
}

// termSet caches the CMS taxonomy for one run so every publish does not
// re-list categories and tags.
type termSet struct {
	categories []wordpress.Term
	tags       []wordpress.Term
}

func (t *termSet) matchCategories(names []string) []int {
	if t == nil {
		return nil
	}
	return wordpress.MatchTermIDs(t.categories, names)
}

func (t *termSet) matchTags(names []string) []int {
	if t == nil {
		return nil
	}
	return wordpress.MatchTermIDs(t.tags, names)
}

// loadTerms fetches the taxonomy once per live run. Failures degrade to
// publishing without term assignment rather than failing the run.
func (r *Runner) loadTerms(ctx context.Context, opts Options, logger *slog.Logger) *termSet {
	if opts.DryRun || r.Publisher == nil {
		return nil
	}

	terms := &termSet{}
	categories, err := r.Publisher.ListCategories(ctx)
	if err != nil {
		logger.Warn("failed to list categories, publishing without them", slog.Any("error", err))
	} else {
		terms.categories = categories
	}

	tags, err := r.Publisher.ListTags(ctx)
	if err != nil {
		logger.Warn("failed to list tags, publishing without them", slog.Any("error", err))
	} else {
		terms.tags = tags
	}

	return terms
}
