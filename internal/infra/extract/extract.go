// Package extract turns fetched pages into source material for the
// generation pipeline. It provides readability extraction of an article's
// core (for rewrite context), a structural outline of headings and internal
// links, and HTML-to-Markdown conversion for review files.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"

	"contentforge/internal/domain/entity"
	"contentforge/internal/resilience/circuitbreaker"
	"contentforge/internal/resilience/retry"
	"contentforge/internal/utils/text"
	"contentforge/internal/webfetch"
)

// Fetcher retrieves one document, falling back across routes as needed.
// *webfetch.Client satisfies this.
type Fetcher interface {
	Fetch(ctx context.Context, target string, opts webfetch.RequestOptions) (*webfetch.Response, error)
}

// Content is the readable core of a page as extracted by the Readability
// algorithm. HTML keeps the cleaned article markup; Text is the same content
// without tags.
type Content struct {
	Title    string
	Byline   string
	HTML     string
	Text     string
	Excerpt  string
	SiteName string
	Words    int
}

// Extractor fetches pages and reduces them to readable article content.
// Transport concerns (timeouts, size limits, proxy fallback) live in the
// fetch client; the extractor adds a circuit breaker so a misbehaving site
// cannot soak the pipeline.
//
// Thread safety: Extractor is safe for concurrent use.
type Extractor struct {
	fetcher Fetcher
	breaker *circuitbreaker.Breaker
}

// NewExtractor creates an Extractor over the given fetcher.
func NewExtractor(fetcher Fetcher) *Extractor {
	cb := circuitbreaker.New(circuitbreaker.Config{
		Name: "content-extract", HalfOpenProbes: 5,
		ResetInterval: time.Minute, Cooldown: time.Minute,
		TripRatio: 0.6, MinSamples: 5,
	})
	return &Extractor{fetcher: fetcher, breaker: cb}
}

// Breaker exposes the extractor's circuit breaker for health reporting.
func (e *Extractor) Breaker() *circuitbreaker.Breaker {
	return e.breaker
}

// ExtractFromURL fetches the page and extracts its article content.
func (e *Extractor) ExtractFromURL(ctx context.Context, pageURL string) (*Content, error) {
	if err := entity.ValidateURL(pageURL); err != nil {
		return nil, err
	}

	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.doExtract(ctx, pageURL)
	})
	if err != nil {
		if circuitbreaker.Rejected(err) {
			slog.Warn("content extract circuit breaker open, request rejected",
				slog.String("url", pageURL), slog.String("state", e.breaker.State().String()))
			return nil, errors.New("content extraction unavailable: circuit breaker open")
		}
		return nil, err
	}
	return result.(*Content), nil
}

func (e *Extractor) doExtract(ctx context.Context, pageURL string) (interface{}, error) {
	resp, err := e.fetcher.Fetch(ctx, pageURL, webfetch.RequestOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	if !resp.Success() {
		msg := fmt.Sprintf("unexpected status fetching %s", pageURL)
		return nil, &retry.StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	content, err := FromHTML(resp.Body, pageURL)
	if err != nil {
		return nil, err
	}
	return content, nil
}

// FromHTML extracts article content from raw HTML. pageURL anchors relative
// references inside the document; extraction still works when it is empty or
// unparsable.
func FromHTML(html []byte, pageURL string) (*Content, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = nil
	}

	article, err := readability.FromReader(bytes.NewReader(html), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability extraction: %w", err)
	}

	if article.TextContent == "" && article.Content == "" {
		return nil, fmt.Errorf("no readable content found")
	}

	out := &Content{
		Title:    article.Title,
		Byline:   article.Byline,
		HTML:     article.Content,
		Text:     article.TextContent,
		Excerpt:  article.Excerpt,
		SiteName: article.SiteName,
		Words:    text.CountWords(article.TextContent),
	}
	return out, nil
}
