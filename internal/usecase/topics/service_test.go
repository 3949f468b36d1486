package topics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentforge/internal/domain/entity"
	"contentforge/internal/infra/feeds"
	"contentforge/internal/usecase/topics"
)

// stubResolver returns a fixed URL list for any sitemap.
type stubResolver struct {
	urls   []string
	fail   error
	gotURL string
}

func (s *stubResolver) Resolve(_ context.Context, sitemapURL string) ([]string, error) {
	s.gotURL = sitemapURL
	if s.fail != nil {
		return nil, s.fail
	}
	return s.urls, nil
}

// stubPostLister returns a fixed post list.
type stubPostLister struct {
	posts     []entity.Post
	fail      error
	gotStatus entity.PostStatus
}

func (s *stubPostLister) ListAllPosts(_ context.Context, status entity.PostStatus) ([]entity.Post, error) {
	s.gotStatus = status
	if s.fail != nil {
		return nil, s.fail
	}
	return s.posts, nil
}

// stubFeedReader maps feed URLs to canned items or errors.
type stubFeedReader struct {
	items map[string][]feeds.Item
	errs  map[string]error
	calls []string
}

func (s *stubFeedReader) Fetch(_ context.Context, feedURL string) ([]feeds.Item, error) {
	s.calls = append(s.calls, feedURL)
	if err, ok := s.errs[feedURL]; ok {
		return nil, err
	}
	return s.items[feedURL], nil
}

func TestFromSitemap_DerivesTopicsFromLeafSlugs(t *testing.T) {
	resolver := &stubResolver{urls: []string{
		"https://example.com/guides/getting-started-with-go/",
		"https://example.com/blog/top-10-tips.html",
	}}
	svc := topics.NewDiscovery(resolver, nil, nil)

	got, err := svc.FromSitemap(context.Background(), "https://example.com/sitemap.xml")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://example.com/sitemap.xml", resolver.gotURL)

	assert.Equal(t, "Getting Started With Go", got[0].Title)
	assert.Equal(t, "getting-started-with-go", got[0].Slug)
	assert.Equal(t, entity.TopicSourceSitemap, got[0].Source)
	assert.Equal(t, "https://example.com/guides/getting-started-with-go/", got[0].SourceURL)

	// File extensions are stripped before humanizing.
	assert.Equal(t, "Top 10 Tips", got[1].Title)
	assert.Equal(t, "top-10-tips", got[1].Slug)
}

func TestFromSitemap_SkipsUnusableLeaves(t *testing.T) {
	resolver := &stubResolver{urls: []string{
		"https://example.com/",
		"https://example.com/blog/page/2",
		"https://example.com/2024/",
		"https://example.com/guides/real-topic",
	}}
	svc := topics.NewDiscovery(resolver, nil, nil)

	got, err := svc.FromSitemap(context.Background(), "https://example.com/sitemap.xml")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "real-topic", got[0].Slug)
}

func TestFromSitemap_DeduplicatesBySlug(t *testing.T) {
	resolver := &stubResolver{urls: []string{
		"https://example.com/guides/kubernetes-basics",
		"https://example.com/archive/kubernetes-basics",
	}}
	svc := topics.NewDiscovery(resolver, nil, nil)

	got, err := svc.FromSitemap(context.Background(), "https://example.com/sitemap.xml")

	require.NoError(t, err)
	require.Len(t, got, 1)
	// First occurrence wins.
	assert.Equal(t, "https://example.com/guides/kubernetes-basics", got[0].SourceURL)
}

func TestFromSitemap_RecordsResolvedURLCount(t *testing.T) {
	before := sitemapResolvedSamples(t)

	resolver := &stubResolver{urls: []string{
		"https://example.com/guides/a-topic",
		"https://example.com/guides/b-topic",
	}}
	svc := topics.NewDiscovery(resolver, nil, nil)

	_, err := svc.FromSitemap(context.Background(), "https://example.com/sitemap.xml")

	require.NoError(t, err)
	assert.Equal(t, before+1, sitemapResolvedSamples(t))
}

// sitemapResolvedSamples reads the sample count of the sitemap resolution
// histogram from the default registry.
func sitemapResolvedSamples(t *testing.T) uint64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "sitemap_urls_resolved" {
			continue
		}
		var n uint64
		for _, m := range mf.GetMetric() {
			n += m.GetHistogram().GetSampleCount()
		}
		return n
	}
	return 0
}

func TestFromSitemap_ResolverErrorPropagates(t *testing.T) {
	resolver := &stubResolver{fail: errors.New("fetch sitemap: connection refused")}
	svc := topics.NewDiscovery(resolver, nil, nil)

	got, err := svc.FromSitemap(context.Background(), "https://example.com/sitemap.xml")

	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "resolve sitemap")
}

func TestFromSitemap_NotConfigured(t *testing.T) {
	svc := topics.NewDiscovery(nil, nil, nil)

	_, err := svc.FromSitemap(context.Background(), "https://example.com/sitemap.xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestFromPosts_StalePostsBecomeRewriteAssignments(t *testing.T) {
	asOf := time.Now()
	lister := &stubPostLister{posts: []entity.Post{
		{ID: 1, Title: "Fresh Post", Modified: asOf.Add(-24 * time.Hour)},
		{ID: 2, Title: "Stale Post", Modified: asOf.Add(-120 * 24 * time.Hour)},
		{ID: 3, Title: "Ancient Post", Modified: asOf.Add(-400 * 24 * time.Hour)},
	}}
	svc := topics.NewDiscovery(nil, lister, nil)

	got, err := svc.FromPosts(context.Background(), 90*24*time.Hour)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entity.PostStatusPublish, lister.gotStatus)

	assert.Equal(t, entity.AssignmentRewrite, got[0].Kind)
	require.NotNil(t, got[0].Post)
	assert.Equal(t, int64(2), got[0].Post.ID)
	assert.Equal(t, int64(3), got[1].Post.ID)
}

func TestFromPosts_ZeroThresholdKeepsEverythingFresh(t *testing.T) {
	lister := &stubPostLister{posts: []entity.Post{
		{ID: 1, Title: "Old Post", Modified: time.Now().Add(-400 * 24 * time.Hour)},
	}}
	svc := topics.NewDiscovery(nil, lister, nil)

	got, err := svc.FromPosts(context.Background(), 0)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFromPosts_ListErrorPropagates(t *testing.T) {
	lister := &stubPostLister{fail: errors.New("cms api unavailable")}
	svc := topics.NewDiscovery(nil, lister, nil)

	_, err := svc.FromPosts(context.Background(), time.Hour)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list cms posts")
}

func TestFromFeeds_CollectsTitles(t *testing.T) {
	fetcher := &stubFeedReader{items: map[string][]feeds.Item{
		"https://a.example.com/feed": {
			{Title: "Kubernetes Networking Deep Dive", URL: "https://a.example.com/k8s"},
			{Title: "Intro to eBPF", URL: "https://a.example.com/ebpf"},
		},
		"https://b.example.com/feed": {
			{Title: "Postgres Tuning", URL: "https://b.example.com/pg"},
		},
	}}
	svc := topics.NewDiscovery(nil, nil, fetcher)

	got, err := svc.FromFeeds(context.Background(), []string{
		"https://a.example.com/feed",
		"https://b.example.com/feed",
	})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"https://a.example.com/feed", "https://b.example.com/feed"}, fetcher.calls)

	assert.Equal(t, "Kubernetes Networking Deep Dive", got[0].Title)
	assert.Equal(t, "kubernetes-networking-deep-dive", got[0].Slug)
	assert.Equal(t, entity.TopicSourceFeed, got[0].Source)
	assert.Equal(t, "https://a.example.com/k8s", got[0].SourceURL)
}

func TestFromFeeds_SkipsFailingFeed(t *testing.T) {
	fetcher := &stubFeedReader{
		items: map[string][]feeds.Item{
			"https://good.example.com/feed": {{Title: "Working Feed Item"}},
		},
		errs: map[string]error{
			"https://bad.example.com/feed": errors.New("fetch feed: timeout"),
		},
	}
	svc := topics.NewDiscovery(nil, nil, fetcher)

	got, err := svc.FromFeeds(context.Background(), []string{
		"https://bad.example.com/feed",
		"https://good.example.com/feed",
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Working Feed Item", got[0].Title)
	// Both feeds were attempted despite the first failing.
	assert.Len(t, fetcher.calls, 2)
}

func TestFromFeeds_ContextCancellationAborts(t *testing.T) {
	fetcher := &stubFeedReader{errs: map[string]error{
		"https://a.example.com/feed": context.Canceled,
	}}
	svc := topics.NewDiscovery(nil, nil, fetcher)

	_, err := svc.FromFeeds(context.Background(), []string{
		"https://a.example.com/feed",
		"https://b.example.com/feed",
	})

	require.ErrorIs(t, err, context.Canceled)
	// The second feed is never contacted once the context is gone.
	assert.Len(t, fetcher.calls, 1)
}

func TestFromFeeds_DeduplicatesAcrossFeeds(t *testing.T) {
	fetcher := &stubFeedReader{items: map[string][]feeds.Item{
		"https://a.example.com/feed": {{Title: "Shared Story", URL: "https://a.example.com/1"}},
		"https://b.example.com/feed": {{Title: "Shared Story", URL: "https://b.example.com/1"}},
	}}
	svc := topics.NewDiscovery(nil, nil, fetcher)

	got, err := svc.FromFeeds(context.Background(), []string{
		"https://a.example.com/feed",
		"https://b.example.com/feed",
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://a.example.com/1", got[0].SourceURL)
}

func TestMerge_FirstSourceWins(t *testing.T) {
	fromSitemap := []entity.Topic{
		{Title: "Getting Started", Slug: "getting-started", Source: entity.TopicSourceSitemap},
		{Title: "Advanced Patterns", Slug: "advanced-patterns", Source: entity.TopicSourceSitemap},
	}
	fromFeeds := []entity.Topic{
		{Title: "Getting Started", Slug: "getting-started", Source: entity.TopicSourceFeed},
		{Title: "Fresh Feed Topic", Slug: "fresh-feed-topic", Source: entity.TopicSourceFeed},
	}

	merged := topics.Merge(fromSitemap, fromFeeds)

	require.Len(t, merged, 3)
	assert.Equal(t, entity.TopicSourceSitemap, merged[0].Source)
	assert.Equal(t, "advanced-patterns", merged[1].Slug)
	assert.Equal(t, "fresh-feed-topic", merged[2].Slug)
}

func TestMerge_SluglessTopicsDedupeByTitle(t *testing.T) {
	first := []entity.Topic{{Title: "日本語のタイトル", Source: entity.TopicSourcePlan}}
	second := []entity.Topic{
		{Title: "日本語のタイトル", Source: entity.TopicSourceFeed},
		{Title: "別のタイトル", Source: entity.TopicSourceFeed},
	}

	merged := topics.Merge(first, second)

	require.Len(t, merged, 2)
	assert.Equal(t, entity.TopicSourcePlan, merged[0].Source)
	assert.Equal(t, "別のタイトル", merged[1].Title)
}

func TestMerge_EmptyInput(t *testing.T) {
	assert.Empty(t, topics.Merge())
	assert.Empty(t, topics.Merge(nil, []entity.Topic{}))
}
