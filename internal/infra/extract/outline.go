package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"contentforge/internal/utils/text"
)

// Heading is one h1-h3 element of a page, in document order.
type Heading struct {
	Level int
	Text  string
}

// Outline is the structural summary of a page: its headings and the
// same-host links it carries. Rewrite prompts use it to preserve a post's
// shape and internal linking.
type Outline struct {
	Headings      []Heading
	InternalLinks []string
}

// OutlineFromHTML builds the outline of a page. Links are resolved against
// baseURL, restricted to the same host, stripped of fragments, and
// de-duplicated in first-seen order.
func OutlineFromHTML(html, baseURL string) (*Outline, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	outline := &Outline{}

	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		heading := strings.TrimSpace(s.Text())
		if heading == "" {
			return
		}

		level := 1
		switch goquery.NodeName(s) {
		case "h2":
			level = 2
		case "h3":
			level = 3
		}

		outline.Headings = append(outline.Headings, Heading{Level: level, Text: heading})
	})

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if !strings.EqualFold(resolved.Host, base.Host) {
			return
		}

		resolved.Fragment = ""
		link := resolved.String()
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		outline.InternalLinks = append(outline.InternalLinks, link)
	})

	return outline, nil
}

// PlainText flattens markup to its visible text with whitespace runs
// collapsed. Malformed input falls back to collapsing the raw string, so
// the result is always usable as excerpt material.
func PlainText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return text.CollapseWhitespace(markup)
	}
	doc.Find("script, style, noscript").Remove()
	return text.CollapseWhitespace(doc.Text())
}
