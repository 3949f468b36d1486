package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPost_StaleSince(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	const month = 30 * 24 * time.Hour

	tests := map[string]struct {
		modified time.Time
		maxAge   time.Duration
		stale    bool
	}{
		"modified long ago is stale":  {modified: now.Add(-3 * month), maxAge: month, stale: true},
		"recently modified is fresh":  {modified: now.Add(-7 * 24 * time.Hour), maxAge: month},
		"exactly at max age is fresh": {modified: now.Add(-month), maxAge: month},
		"zero modified never stale":   {maxAge: month},
		"zero max age never stale":    {modified: now.Add(-3 * month)},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			post := Post{ID: 1, Title: "A Post", Modified: tc.modified}
			assert.Equal(t, tc.stale, post.StaleSince(now, tc.maxAge))
		})
	}
}

func TestPost_StatusConstants(t *testing.T) {
	assert.Equal(t, PostStatus("publish"), PostStatusPublish)
	assert.Equal(t, PostStatus("draft"), PostStatusDraft)
	assert.Equal(t, PostStatus("pending"), PostStatusPending)
	assert.Equal(t, PostStatus("future"), PostStatusFuture)
	assert.Equal(t, PostStatus("private"), PostStatusPrivate)
}

func TestPost_ZeroValue(t *testing.T) {
	var post Post

	assert.Equal(t, int64(0), post.ID)
	assert.Equal(t, "", post.Title)
	assert.Equal(t, "", post.Slug)
	assert.Equal(t, "", post.Link)
	assert.Equal(t, PostStatus(""), post.Status)
	assert.True(t, post.Modified.IsZero())
	assert.Equal(t, "", post.Excerpt)
}
