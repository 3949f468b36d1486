package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDraft_Validate(t *testing.T) {
	tests := map[string]struct {
		draft    Draft
		wantFail bool
	}{
		"valid draft": {
			draft: Draft{
				Title:       "How To Proof Dough Overnight",
				Slug:        "how-to-proof-dough-overnight",
				ContentHTML: "<p>Chill the dough...</p>",
			},
		},
		"valid draft without slug": {
			draft: Draft{
				Title:       "Untitled Experiment",
				ContentHTML: "<p>body</p>",
			},
		},
		"missing title":   {draft: Draft{ContentHTML: "<p>body</p>"}, wantFail: true},
		"missing content": {draft: Draft{Title: "Empty Body"}, wantFail: true},
		"whitespace content": {
			draft:    Draft{Title: "Whitespace Body", ContentHTML: "   \n\t"},
			wantFail: true,
		},
		"invalid slug": {
			draft: Draft{
				Title:       "Bad Slug",
				Slug:        "Bad_Slug",
				ContentHTML: "<p>body</p>",
			},
			wantFail: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := tc.draft.Validate()
			if tc.wantFail {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDraft_ZeroValue(t *testing.T) {
	var draft Draft

	assert.Equal(t, "", draft.ID)
	assert.Equal(t, "", draft.Title)
	assert.Equal(t, "", draft.ContentHTML)
	assert.Nil(t, draft.Tags)
	assert.Nil(t, draft.Categories)
	assert.True(t, draft.GeneratedAt.IsZero())
}

func TestDraft_WithAllFields(t *testing.T) {
	generatedAt := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

	draft := Draft{
		ID:          "4f9d6a2e-8f1b-4c3d-9e5a-1b2c3d4e5f6a",
		Title:       "Complete Draft",
		Slug:        "complete-draft",
		ContentHTML: "<h2>Intro</h2><p>...</p>",
		Excerpt:     "A complete draft with all fields populated",
		Tags:        []string{"baking", "guide"},
		Categories:  []string{"Recipes"},
		Model:       "claude-sonnet-4-5",
		GeneratedAt: generatedAt,
	}

	assert.NotEmpty(t, draft.ID)
	assert.NotEmpty(t, draft.Title)
	assert.NotEmpty(t, draft.ContentHTML)
	assert.Len(t, draft.Tags, 2)
	assert.Len(t, draft.Categories, 1)
	assert.Equal(t, "claude-sonnet-4-5", draft.Model)
	assert.False(t, draft.GeneratedAt.IsZero())
}
