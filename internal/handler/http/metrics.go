package http

import (
	"net/http"
	"strconv"
	"time"

	"contentforge/internal/handler/http/pathutil"
	"contentforge/internal/handler/http/responsewriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP surface metrics. Business metrics for the pipeline live in
// internal/observability/metrics.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	// The buckets run much higher than usual API buckets because the
	// generate endpoint holds the request open for a whole synchronous
	// batch.
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "http",
		Name:      "request_duration_seconds",
		Help:      "Server-side request latency in seconds.",
		Buckets:   []float64{.005, .025, .1, .5, 1, 5, 15, 60, 180, 600},
	}, []string{"method", "path", "status"})

	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "http",
		Name:      "requests_in_flight",
		Help:      "Requests currently being served.",
	})

	requestSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "http",
		Name:      "request_size_bytes",
		Help:      "Request body size in bytes.",
		Buckets:   prometheus.ExponentialBuckets(128, 8, 7),
	}, []string{"method", "path"})

	responseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "http",
		Name:      "response_size_bytes",
		Help:      "Response body size in bytes.",
		Buckets:   prometheus.ExponentialBuckets(128, 8, 7),
	}, []string{"method", "path"})
)

// Instrument records request counts, latency and sizes. Paths are normalized
// first so ID-bearing URLs and scanner probes cannot explode label
// cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inFlight.Inc()
		defer inFlight.Dec()

		path := pathutil.NormalizePath(r.URL.Path)
		if size := r.ContentLength; size > 0 {
			requestSize.WithLabelValues(r.Method, path).Observe(float64(size))
		}

		rec := responsewriter.Wrap(w)
		began := time.Now()
		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.Status())
		requestsTotal.WithLabelValues(r.Method, path, status).Inc()
		requestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(began).Seconds())
		responseSize.WithLabelValues(r.Method, path).Observe(float64(rec.Bytes()))
	})
}

// PrometheusHandler exposes the default registry in Prometheus text format.
func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}
