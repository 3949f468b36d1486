// Package topics discovers candidate article topics from the three
// supported sources: a site's sitemap, its existing CMS posts, and
// external RSS/Atom feeds.
package topics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"contentforge/internal/domain/entity"
	"contentforge/internal/infra/feeds"
	"contentforge/internal/observability/metrics"
	"contentforge/internal/utils/text"
)

// SitemapResolver expands a sitemap URL into the flat list of content URLs
// it transitively describes.
type SitemapResolver interface {
	Resolve(ctx context.Context, sitemapURL string) ([]string, error)
}

// PostLister retrieves existing posts from the CMS.
type PostLister interface {
	ListAllPosts(ctx context.Context, status entity.PostStatus) ([]entity.Post, error)
}

// FeedReader retrieves recent items from an RSS/Atom feed.
type FeedReader interface {
	Fetch(ctx context.Context, feedURL string) ([]feeds.Item, error)
}

// Discovery exposes the topic discovery use cases. Each source is
// optional; calling a method whose dependency is nil returns an error.
type Discovery struct {
	Sitemaps SitemapResolver
	Posts    PostLister
	Feeds    FeedReader
}

// NewDiscovery assembles topic discovery over the provided sources. Any
// dependency may be nil if the corresponding discovery method is unused.
func NewDiscovery(sitemaps SitemapResolver, posts PostLister, feedFetcher FeedReader) *Discovery {
	return &Discovery{
		Sitemaps: sitemaps,
		Posts:    posts,
		Feeds:    feedFetcher,
	}
}

// FromSitemap resolves a sitemap and derives one topic per content URL,
// titled from the humanized leaf slug. URLs without a usable slug (the site
// root, purely numeric archive pages) contribute nothing. Results are
// de-duplicated by slug.
func (d *Discovery) FromSitemap(ctx context.Context, sitemapURL string) ([]entity.Topic, error) {
	if d.Sitemaps == nil {
		return nil, errors.New("sitemap resolver is not configured")
	}

	urls, err := d.Sitemaps.Resolve(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("resolve sitemap: %w", err)
	}
	metrics.RecordSitemapResolved(len(urls))

	topics := make([]entity.Topic, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, contentURL := range urls {
		topic, ok := topicFromContentURL(contentURL)
		if !ok || seen[topic.Slug] {
			continue
		}
		seen[topic.Slug] = true
		topics = append(topics, topic)
	}

	metrics.RecordTopicsDiscovered(string(entity.TopicSourceSitemap), len(topics))
	slog.Info("sitemap topics discovered",
		slog.String("sitemap_url", sitemapURL),
		slog.Int("urls", len(urls)),
		slog.Int("topics", len(topics)))

	return topics, nil
}

// FromPosts lists published CMS posts and turns every post that has gone
// unmodified for longer than staleAfter into a rewrite assignment. Fresh
// posts contribute nothing.
func (d *Discovery) FromPosts(ctx context.Context, staleAfter time.Duration) ([]entity.Assignment, error) {
	if d.Posts == nil {
		return nil, errors.New("cms client is not configured")
	}

	posts, err := d.Posts.ListAllPosts(ctx, entity.PostStatusPublish)
	if err != nil {
		return nil, fmt.Errorf("list cms posts: %w", err)
	}

	asOf := time.Now()
	assignments := make([]entity.Assignment, 0)
	for _, post := range posts {
		if !post.StaleSince(asOf, staleAfter) {
			continue
		}
		assignments = append(assignments, entity.RewriteAssignment(post))
	}

	metrics.RecordTopicsDiscovered(string(entity.TopicSourcePosts), len(assignments))
	slog.Info("stale posts discovered",
		slog.Int("posts", len(posts)),
		slog.Int("stale", len(assignments)),
		slog.Duration("stale_after", staleAfter))

	return assignments, nil
}

// FromFeeds fetches every feed URL and collects item titles as topic
// candidates. A failing feed is logged and skipped so one bad feed never
// hides the others; only context cancellation aborts the whole scan.
func (d *Discovery) FromFeeds(ctx context.Context, feedURLs []string) ([]entity.Topic, error) {
	if d.Feeds == nil {
		return nil, errors.New("feed fetcher is not configured")
	}

	topics := make([]entity.Topic, 0)
	seen := make(map[string]bool)
	for _, feedURL := range feedURLs {
		items, err := d.Feeds.Fetch(ctx, feedURL)
		if err != nil {
			if isCancellation(err) {
				return nil, err
			}
			slog.Warn("failed to fetch feed, skipping",
				slog.String("feed_url", feedURL), slog.Any("error", err))
			metrics.RecordFeedCrawlFailure(feedURL, "fetch_failed")
			continue
		}

		metrics.RecordFeedItemsFetched(feedURL, len(items))
		for _, item := range items {
			topic, ok := topicFromFeedItem(item)
			if !ok || seen[dedupeKey(topic)] {
				continue
			}
			seen[dedupeKey(topic)] = true
			topics = append(topics, topic)
		}
	}

	metrics.RecordTopicsDiscovered(string(entity.TopicSourceFeed), len(topics))
	slog.Info("feed topics discovered",
		slog.Int("feeds", len(feedURLs)),
		slog.Int("topics", len(topics)))

	return topics, nil
}

// Merge combines topic lists from several discovery sources into one,
// de-duplicating by slug. The first occurrence wins, so callers pass lists
// in priority order.
func Merge(groups ...[]entity.Topic) []entity.Topic {
	merged := make([]entity.Topic, 0)
	seen := make(map[string]bool)
	for _, group := range groups {
		for _, topic := range group {
			key := dedupeKey(topic)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, topic)
		}
	}
	return merged
}

// dedupeKey identifies a topic for de-duplication. Slugless topics
// (non-ASCII titles) fall back to the lowercased title.
func dedupeKey(topic entity.Topic) string {
	if topic.Slug != "" {
		return topic.Slug
	}
	return strings.ToLower(topic.Title)
}

// topicFromContentURL derives a topic from the leaf slug of a content URL.
// Returns false for URLs with no usable leaf: the site root, purely numeric
// segments (date and pagination archives), or slugs that humanize to nothing.
func topicFromContentURL(contentURL string) (entity.Topic, bool) {
	parsed, err := url.Parse(contentURL)
	if err != nil {
		return entity.Topic{}, false
	}

	leaf := leafSegment(parsed.Path)
	if leaf == "" || isNumeric(leaf) {
		return entity.Topic{}, false
	}

	slug := text.Slugify(leaf)
	title := text.Humanize(slug)
	if slug == "" || title == "" {
		return entity.Topic{}, false
	}

	return entity.Topic{
		Title:     title,
		Slug:      slug,
		Source:    entity.TopicSourceSitemap,
		SourceURL: contentURL,
	}, true
}

// topicFromFeedItem derives a topic from one feed item. Items without a
// title contribute nothing.
func topicFromFeedItem(item feeds.Item) (entity.Topic, bool) {
	itemTitle := strings.TrimSpace(item.Title)
	if itemTitle == "" {
		return entity.Topic{}, false
	}
	return entity.Topic{
		Title:     itemTitle,
		Slug:      text.Slugify(itemTitle),
		Source:    entity.TopicSourceFeed,
		SourceURL: item.URL,
	}, true
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// leafSegment returns the last non-empty path segment with any file
// extension stripped, so "/guides/intro.html" yields "intro".
func leafSegment(urlPath string) string {
	trimmed := strings.Trim(urlPath, "/")
	if trimmed == "" {
		return ""
	}
	leaf := trimmed
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		leaf = trimmed[idx+1:]
	}
	return strings.TrimSuffix(leaf, path.Ext(leaf))
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
