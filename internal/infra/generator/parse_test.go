package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraft_ValidJSON(t *testing.T) {
	raw := `{
		"title": "Choosing a Home Espresso Machine",
		"slug": "choosing-home-espresso-machine",
		"excerpt": "What actually matters when buying your first machine.",
		"tags": ["espresso", "buying guide"],
		"categories": ["Coffee Gear"],
		"content_html": "<h2>Budget first</h2><p>Start with the boiler type.</p>"}`

	draft, err := parseDraft(raw)

	require.NoError(t, err)
	assert.Equal(t, "Choosing a Home Espresso Machine", draft.Title)
	assert.Equal(t, "choosing-home-espresso-machine", draft.Slug)
	assert.Equal(t, "What actually matters when buying your first machine.", draft.Excerpt)
	assert.Equal(t, []string{"espresso", "buying guide"}, draft.Tags)
	assert.Equal(t, []string{"Coffee Gear"}, draft.Categories)
	assert.Contains(t, draft.ContentHTML, "<h2>Budget first</h2>")
}

func TestParseDraft_MarkdownCodeFence(t *testing.T) {
	cases := map[string]string{
		"json fence":                  "```json\n{\"title\": \"Fenced\", \"content_html\": \"<p>body</p>\"}\n```",
		"bare fence":                  "```\n{\"title\": \"Fenced\", \"content_html\": \"<p>body</p>\"}\n```",
		"fence with trailing newline": "```json\n{\"title\": \"Fenced\", \"content_html\": \"<p>body</p>\"}\n```\n",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			draft, err := parseDraft(raw)

			require.NoError(t, err)
			assert.Equal(t, "Fenced", draft.Title)
			assert.Equal(t, "<p>body</p>", draft.ContentHTML)
		})
	}
}

func TestParseDraft_JSONSurroundedByProse(t *testing.T) {
	raw := "Here is the article you asked for:\n" +
		`{"title": "Wrapped", "content_html": "<p>body</p>"}` +
		"\nLet me know if you need changes."

	draft, err := parseDraft(raw)

	require.NoError(t, err)
	assert.Equal(t, "Wrapped", draft.Title)
}

func TestParseDraft_MissingTitle(t *testing.T) {
	cases := map[string]string{
		"absent field":     `{"content_html": "<p>body</p>"}`,
		"empty title":      `{"title": "", "content_html": "<p>body</p>"}`,
		"whitespace title": `{"title": "   ", "content_html": "<p>body</p>"}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			draft, err := parseDraft(raw)

			require.Error(t, err)
			assert.Nil(t, draft)
			assert.Contains(t, err.Error(), "title")
		})
	}
}

func TestParseDraft_MissingContent(t *testing.T) {
	draft, err := parseDraft(`{"title": "No Body"}`)

	require.Error(t, err)
	assert.Nil(t, draft)
	assert.Contains(t, err.Error(), "content")
}

func TestParseDraft_NotJSON(t *testing.T) {
	cases := map[string]string{
		"plain prose":  "I cannot write that article.",
		"empty string": "",
		"broken json":  `{"title": "Broken`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			draft, err := parseDraft(raw)

			require.Error(t, err)
			assert.Nil(t, draft)
		})
	}
}

func TestParseDraft_SlugRepair(t *testing.T) {
	cases := map[string]struct {
		raw      string
		wantSlug string
	}{
		"missing slug derived from title": {`{"title": "Cold Brew at Home", "content_html": "<p>b</p>"}`, "cold-brew-at-home"},
		"invalid slug replaced":           {`{"title": "Cold Brew at Home", "slug": "Cold Brew!!", "content_html": "<p>b</p>"}`, "cold-brew-at-home"},
		"valid slug kept":                 {`{"title": "Cold Brew at Home", "slug": "cold-brew-guide", "content_html": "<p>b</p>"}`, "cold-brew-guide"},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			draft, err := parseDraft(tt.raw)

			require.NoError(t, err)
			assert.Equal(t, tt.wantSlug, draft.Slug)
		})
	}
}

func TestParseDraft_LeavesModelAndTimestampEmpty(t *testing.T) {
	draft, err := parseDraft(`{"title": "T", "content_html": "<p>b</p>"}`)

	require.NoError(t, err)
	assert.Empty(t, draft.Model)
	assert.True(t, draft.GeneratedAt.IsZero())
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]struct {
		in  string
		out string
	}{
		"no fence passes through":             {`{"a": 1}`, `{"a": 1}`},
		"json fence removed":                  {"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		"bare fence removed":                  {"```\n{\"a\": 1}\n```", `{"a": 1}`},
		"opening fence without newline":       {"```json", "```json"},
		"missing closing fence still unwraps": {"```json\n{\"a\": 1}", `{"a": 1}`},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.out, stripCodeFence(tt.in))
		})
	}
}

func TestParseDraft_LargeContent(t *testing.T) {
	body := "<p>" + strings.Repeat("word ", 2000) + "</p>"
	raw := `{"title": "Long", "content_html": "` + strings.ReplaceAll(body, `"`, `\"`) + `"}`

	draft, err := parseDraft(raw)

	require.NoError(t, err)
	assert.Greater(t, len(draft.ContentHTML), 5000)
}
