package generator

import (
	"fmt"
	"strings"

	"contentforge/internal/domain/entity"
	"contentforge/internal/infra/extract"
	"contentforge/internal/utils/text"
)

// maxSourceChars caps how much of an existing article body is quoted in a
// rewrite prompt. Keeps request size predictable across providers.
const maxSourceChars = 20000

// maxOutlineLinks caps how many internal links a rewrite prompt lists. Link
// farms and tag clouds produce hundreds; past this point they stop guiding
// the model and only cost tokens.
const maxOutlineLinks = 20

// draftSchema is the JSON shape every provider is asked to respond with.
// parseDraft expects exactly these keys.
const draftSchema = `{
  "title": "article title",
  "slug": "url-friendly-slug",
  "excerpt": "one or two sentence summary",
  "tags": ["tag"],
  "categories": ["category"],
  "content_html": "<h2>...</h2><p>...</p>"}`

// promptParams carries the configuration slice of the prompt that differs
// per provider instance.
type promptParams struct {
	Language  string
	WordCount int
}

// buildPrompt renders the generation instructions for one assignment.
// New-topic assignments describe the subject and keywords; rewrite
// assignments quote the current article body (truncated) and ask for a
// refreshed version. Both end with the same output contract so parseDraft
// can handle either.
func buildPrompt(p promptParams, a entity.Assignment, sourceHTML string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are writing a complete article in %s for a WordPress site.\n\n", p.Language)

	switch a.Kind {
	case entity.AssignmentRewrite:
		fmt.Fprintf(&b, "Rewrite and refresh the existing article %q (%s).\n", a.Post.Title, a.Post.Link)
		b.WriteString("Keep the subject, improve the structure and depth, and bring outdated details up to date. Do not reuse sentences verbatim.\n")
		if sourceHTML != "" {
			fmt.Fprintf(&b, "\nCurrent article body:\n%s\n", text.Truncate(sourceHTML, maxSourceChars))
			writeOutline(&b, sourceHTML, a.Post.Link)
		}
	default:
		fmt.Fprintf(&b, "Write a new article about: %s\n", a.Topic.Title)
		if len(a.Topic.Keywords) > 0 {
			fmt.Fprintf(&b, "Work these keywords in naturally: %s\n", strings.Join(a.Topic.Keywords, ", "))
		}
	}

	fmt.Fprintf(&b, "\nTarget length: approximately %d words.\n", p.WordCount)
	b.WriteString("Write the body as clean semantic HTML: <h2>/<h3> section headings, <p> paragraphs, lists where they help. No <html> or <body> wrapper, no inline styles, no scripts.\n")
	fmt.Fprintf(&b, "Respond with a single JSON object and nothing else, matching this shape:\n%s\n", draftSchema)

	return b.String()
}

// writeOutline appends the structural summary of the current article so the
// rewrite keeps its heading shape and internal links, which survive even when
// the quoted body hit the truncation cap. An outline that cannot be built
// contributes nothing; the quoted body already carries the content.
func writeOutline(b *strings.Builder, sourceHTML, pageURL string) {
	outline, err := extract.OutlineFromHTML(sourceHTML, pageURL)
	if err != nil {
		return
	}

	if len(outline.Headings) > 0 {
		b.WriteString("\nCurrent section structure, keep the overall shape:\n")
		for _, h := range outline.Headings {
			fmt.Fprintf(b, "%sh%d: %s\n", strings.Repeat("  ", h.Level-1), h.Level, h.Text)
		}
	}

	if len(outline.InternalLinks) > 0 {
		links := outline.InternalLinks
		if len(links) > maxOutlineLinks {
			links = links[:maxOutlineLinks]
		}
		b.WriteString("\nPreserve these internal links in the rewritten body:\n")
		for _, link := range links {
			fmt.Fprintf(b, "- %s\n", link)
		}
	}
}
