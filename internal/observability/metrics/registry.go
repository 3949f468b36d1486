package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics. Registered on the default registry; the promauto calls
// panic on name collisions at init, which is the behavior we want for a
// typo'd duplicate.
var (
	// TopicsDiscoveredTotal counts candidate topics discovered per source kind.
	TopicsDiscoveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topics_discovered_total",
		Help: "Candidate topics discovered, labelled by source kind.",
	}, []string{"source"})

	// AssignmentsProcessedTotal counts pipeline assignments by kind and outcome.
	AssignmentsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assignments_processed_total",
		Help: "Pipeline assignments processed, labelled by kind and status.",
	}, []string{"kind", "status"})

	// GenerationDuration measures time to generate one article draft.
	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "generation_duration_seconds",
		Help:    "Time taken to generate one article draft.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s ~ 256s
	})

	// PublishAttemptsTotal counts publish attempts by result.
	PublishAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_attempts_total",
		Help: "Publish attempts against the CMS.",
	}, []string{"result"}) // result: success, failure

	// PublishDuration measures time to publish a draft to the CMS.
	PublishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "publish_duration_seconds",
		Help:    "Time taken to publish one draft to the CMS.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s ~ 51.2s
	})

	// RunsTotal counts completed pipeline runs by outcome.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_runs_total",
		Help: "Completed pipeline runs by outcome.",
	}, []string{"status"}) // status: success, partial, failure

	// RunDuration measures end-to-end pipeline run duration.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_run_duration_seconds",
		Help:    "End-to-end pipeline run duration.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s ~ about an hour
	})

	// FetchAttemptsTotal counts outbound fetch attempts by route and result.
	FetchAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_attempts_total",
		Help: "Outbound fetch attempts by route and result.",
	}, []string{"route", "result"}) // route: direct or proxy name

	// FetchDuration measures time to fetch a remote resource.
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fetch_duration_seconds",
		Help:    "Time taken to fetch one remote resource.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
	})

	// FetchSize measures fetched body size in bytes. The ladder tops out at
	// the 10MB cap the fetcher enforces.
	FetchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fetch_size_bytes",
		Help:    "Fetched response body size in bytes.",
		Buckets: append(prometheus.ExponentialBuckets(100, 2, 17), 10485760),
	})

	// SitemapURLsResolved measures how many URLs one sitemap resolution produced.
	SitemapURLsResolved = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sitemap_urls_resolved",
		Help:    "Unique URLs produced per sitemap resolution.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	// FeedItemsFetchedTotal counts feed items fetched per feed.
	FeedItemsFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_items_fetched_total",
		Help: "Feed items fetched, labelled by feed.",
	}, []string{"feed"})

	// FeedCrawlFailures counts failed feed crawls by feed and error class.
	FeedCrawlFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_crawl_failures_total",
		Help: "Feed crawl failures by feed and error class.",
	}, []string{"feed", "error_type"})

	// StageDuration measures the duration of each named pipeline stage.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Pipeline stage duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"stage"})
)

// RecordStageDuration records the duration of one named pipeline stage.
func RecordStageDuration(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}
