package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"contentforge/internal/domain/entity"
	"contentforge/internal/utils/text"
)

// draftPayload mirrors the JSON object providers are instructed to return.
type draftPayload struct {
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Excerpt     string   `json:"excerpt"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`
	ContentHTML string   `json:"content_html"`
}

// parseDraft converts a raw model response into a Draft. It tolerates the
// two framing mistakes models actually make: wrapping the JSON in a markdown
// code fence, and surrounding it with prose. A response without a usable
// title or body is an error; a bad or missing slug is repaired from the
// title instead.
//
// Model and GeneratedAt are left for the caller to fill in.
func parseDraft(raw string) (*entity.Draft, error) {
	payload := stripCodeFence(strings.TrimSpace(raw))

	var p draftPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		// Second chance: extract the outermost JSON object from prose.
		start := strings.Index(payload, "{")
		end := strings.LastIndex(payload, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("response is not valid JSON: %w", err)
		}
		if err2 := json.Unmarshal([]byte(payload[start:end+1]), &p); err2 != nil {
			return nil, fmt.Errorf("response is not valid JSON: %w", err)
		}
	}

	draftTitle := strings.TrimSpace(p.Title)
	if draftTitle == "" {
		return nil, fmt.Errorf("response is missing a title")
	}
	if strings.TrimSpace(p.ContentHTML) == "" {
		return nil, fmt.Errorf("response is missing article content")
	}

	draftSlug := strings.TrimSpace(p.Slug)
	if draftSlug == "" || entity.ValidateSlug(draftSlug) != nil {
		draftSlug = text.Slugify(draftTitle)
	}

	draft := &entity.Draft{
		Title:       draftTitle,
		Slug:        draftSlug,
		ContentHTML: p.ContentHTML,
		Excerpt:     strings.TrimSpace(p.Excerpt),
		Tags:        p.Tags,
		Categories:  p.Categories,
	}
	return draft, nil
}

// stripCodeFence removes a surrounding markdown code fence (``` or ```json)
// from the payload, if present. Content without a fence passes through
// unchanged.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	idx := strings.Index(s, "\n")
	if idx < 0 {
		return s
	}
	s = strings.TrimSpace(s[idx+1:])
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
