// Package metrics holds the Prometheus series for the content pipeline:
//
//   - Discovery metrics (topics, feeds, sitemap resolutions)
//   - Generation and publish metrics (drafts, CMS attempts, run outcomes)
//   - Outbound fetch metrics (routes, duration, size)
//   - Pipeline stage durations
//
// HTTP surface metrics live with the HTTP handler instead, so the API and
// worker binaries can both import this package without clashing on series
// names. Everything registers on the Prometheus default registry and is
// exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "contentforge/internal/observability/metrics"
//
//	func discoverTopics(source string) {
//	    start := time.Now()
//	    // ... discover topics ...
//	    count := 10
//
//	    metrics.RecordTopicsDiscovered(source, count)
//	    metrics.RecordStageDuration("discover", time.Since(start))
//	}
package metrics
