// Package feeds pulls RSS and Atom sources and flattens their entries into
// topic candidates. Transport rides on the multi-route web client so feeds
// behind aggressive bot blocking still resolve; parsing is gofeed.
package feeds

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"contentforge/internal/resilience/circuitbreaker"
	"contentforge/internal/resilience/retry"
	"contentforge/internal/webfetch"
)

// Item is one feed entry.
type Item struct {
	Title   string
	URL     string
	Summary string
	PubDate time.Time
}

// Fetcher retrieves one document, falling back across routes as needed.
// *webfetch.Client satisfies this.
type Fetcher interface {
	Fetch(ctx context.Context, target string, opts webfetch.RequestOptions) (*webfetch.Response, error)
}

// FeedFetcher retrieves and parses feeds. Attempts run through a circuit
// breaker inside a retry loop, so one dead source neither stalls a run nor
// hammers the origin while it recovers.
type FeedFetcher struct {
	fetcher Fetcher
	breaker *circuitbreaker.Breaker
	backoff retry.Config
}

// NewFeedFetcher creates a FeedFetcher over the given fetch client.
func NewFeedFetcher(fetcher Fetcher) *FeedFetcher {
	return &FeedFetcher{
		fetcher: fetcher,
		breaker: circuitbreaker.New(circuitbreaker.FeedConfig()),
		backoff: retry.FeedConfig(),
	}
}

// Breaker exposes the fetcher's circuit breaker for health reporting.
func (f *FeedFetcher) Breaker() *circuitbreaker.Breaker {
	return f.breaker
}

// Fetch retrieves and parses an RSS or Atom feed from the given URL.
func (f *FeedFetcher) Fetch(ctx context.Context, feedURL string) ([]Item, error) {
	var items []Item

	err := retry.Do(ctx, f.backoff, func() error {
		got, err := f.guarded(ctx, feedURL)
		if err != nil {
			return err
		}
		items = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// guarded runs a single attempt through the circuit breaker and logs
// rejections while the breaker holds the source open.
func (f *FeedFetcher) guarded(ctx context.Context, feedURL string) ([]Item, error) {
	result, err := f.breaker.Execute(func() (interface{}, error) {
		return f.fetchOnce(ctx, feedURL)
	})
	if circuitbreaker.Rejected(err) {
		slog.Warn("feed source skipped, breaker open", slog.String("url", feedURL),
			slog.String("state", f.breaker.State().String()))
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return result.([]Item), nil
}

// fetchOnce performs one fetch-and-parse pass without any resilience wrapping.
func (f *FeedFetcher) fetchOnce(ctx context.Context, feedURL string) ([]Item, error) {
	res, err := f.fetcher.Fetch(ctx, feedURL, webfetch.RequestOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	if !res.Success() {
		return nil, &retry.StatusError{
			StatusCode: res.StatusCode,
			Message:    fmt.Sprintf("unexpected status fetching feed %s", feedURL),
		}
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, newItem(entry))
	}
	return items, nil
}

// newItem flattens one gofeed entry. Content wins over Description when a
// source carries both, and entries without a parsable date count as fresh.
func newItem(entry *gofeed.Item) Item {
	it := Item{Title: entry.Title, URL: entry.Link, Summary: entry.Content}
	if it.Summary == "" {
		it.Summary = entry.Description
	}
	it.PubDate = time.Now()
	if entry.PublishedParsed != nil {
		it.PubDate = *entry.PublishedParsed
	}
	return it
}
