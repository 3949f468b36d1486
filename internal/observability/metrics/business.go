package metrics

import (
	"time"
)

// RecordTopicsDiscovered records the number of candidate topics produced by a
// discovery source ("sitemap", "posts", "feed", "plan").
func RecordTopicsDiscovered(source string, count int) {
	if count <= 0 {
		return
	}
	TopicsDiscoveredTotal.WithLabelValues(source).Add(float64(count))
}

// RecordAssignmentProcessed records the outcome of one pipeline assignment.
// Kind is "new_topic" or "rewrite".
func RecordAssignmentProcessed(kind string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	AssignmentsProcessedTotal.WithLabelValues(kind, status).Inc()
}

// RecordGenerationDuration records the time taken to generate one draft.
// This helps identify performance issues with the AI generation service.
func RecordGenerationDuration(duration time.Duration) {
	GenerationDuration.Observe(duration.Seconds())
}

// RecordPublishAttempt records the outcome and duration of a publish call
// against the CMS.
func RecordPublishAttempt(success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	PublishAttemptsTotal.WithLabelValues(result).Inc()
	PublishDuration.Observe(duration.Seconds())
}

// RecordRunCompleted records an end-to-end pipeline run.
// Status should be "success", "partial", or "failure".
func RecordRunCompleted(status string, duration time.Duration) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration.Seconds())
}

// RecordFetchSuccess records a successful outbound fetch.
// Route is "direct" or the name of the proxy that served the request.
//
// Example:
//
//	start := time.Now()
//	resp, err := client.Fetch(ctx, url, opts)
//	if err == nil {
//	    metrics.RecordFetchSuccess(resp.Via, time.Since(start), len(resp.Body))
//	}
func RecordFetchSuccess(route string, duration time.Duration, size int) {
	FetchAttemptsTotal.WithLabelValues(route, "success").Inc()
	FetchDuration.Observe(duration.Seconds())
	FetchSize.Observe(float64(size))
}

// RecordFetchFailed records a failed outbound fetch attempt on a route.
func RecordFetchFailed(route string, duration time.Duration) {
	FetchAttemptsTotal.WithLabelValues(route, "failure").Inc()
	FetchDuration.Observe(duration.Seconds())
}

// RecordSitemapResolved records the number of unique URLs produced by one
// sitemap resolution.
func RecordSitemapResolved(urlCount int) {
	SitemapURLsResolved.Observe(float64(urlCount))
}

// RecordFeedItemsFetched records the number of items fetched from a feed.
func RecordFeedItemsFetched(feed string, count int) {
	if count <= 0 {
		return
	}
	FeedItemsFetchedTotal.WithLabelValues(feed).Add(float64(count))
}

// RecordFeedCrawlFailure records one failed crawl of a feed. errorType names
// the failure class, for example fetch_failed or parse_error.
func RecordFeedCrawlFailure(feed string, errorType string) {
	FeedCrawlFailures.WithLabelValues(feed, errorType).Inc()
}
