package generator

import (
	"context"
	"fmt"
	"time"

	"contentforge/internal/domain/entity"
	"contentforge/internal/utils/text"
)

// Placeholder is a generator that produces a deterministic placeholder draft
// without calling any AI provider. This is useful for dry runs and tests where
// real generation is not needed.
type Placeholder struct{}

// NewPlaceholder creates a new Placeholder generator.
func NewPlaceholder() *Placeholder {
	return &Placeholder{}
}

// GenerateDraft returns a minimal placeholder draft derived from the
// assignment. Rewrites keep the existing title and slug so the draft maps
// back to the post it would replace.
func (n *Placeholder) GenerateDraft(_ context.Context, assignment entity.Assignment, _ string) (*entity.Draft, error) {
	if err := assignment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assignment: %w", err)
	}

	draftTitle := ""
	draftSlug := ""
	switch assignment.Kind {
	case entity.AssignmentRewrite:
		draftTitle = assignment.Post.Title
		draftSlug = assignment.Post.Slug
	default:
		draftTitle = assignment.Topic.Title
		draftSlug = assignment.Topic.Slug
	}
	if draftSlug == "" {
		draftSlug = text.Slugify(draftTitle)
	}

	draft := &entity.Draft{
		Title:       draftTitle,
		Slug:        draftSlug,
		ContentHTML: fmt.Sprintf("<p>Placeholder draft for %s.</p>", assignment.Label()),
		Excerpt:     fmt.Sprintf("Placeholder draft for %s.", assignment.Label()),
		Model:       "noop",
		GeneratedAt: time.Now(),
	}
	return draft, nil
}
