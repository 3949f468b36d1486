package worker

import (
	"contentforge/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// runSecondsBuckets spans quick dry runs up to the run timeout ceiling.
var runSecondsBuckets = []float64{1, 5, 30, 60, 300, 900, 1800}

// Metrics is the Prometheus instrumentation for the scheduled worker:
// the shared configuration health set plus counters around each content run.
// Alerting on worker_content_last_success_timestamp going stale catches a
// worker that is alive but no longer producing.
type Metrics struct {
	*config.LoadMetrics

	runs        *prometheus.CounterVec // runs by outcome: started, success, partial, failure
	runSeconds  prometheus.Histogram   // wall time of one run, discovery and publishing included
	assignments prometheus.Counter     // assignments handled across all runs
	lastSuccess prometheus.Gauge       // unix time of the last run that produced content
}

// NewMetrics registers the worker metric set with the default Prometheus
// registry. Call it once at startup; a second call panics on the duplicate
// registration.
func NewMetrics() *Metrics {
	wm := &Metrics{LoadMetrics: config.NewLoadMetrics("worker")}

	wm.runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_content_runs_total",
		Help: "Content runs by outcome",
	}, []string{"outcome"})

	wm.runSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "worker_content_run_duration_seconds",
		Help:    "Duration of one content run in seconds",
		Buckets: runSecondsBuckets,
	})

	wm.assignments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worker_content_run_assignments_total",
		Help: "Assignments processed across all content runs",
	})

	wm.lastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "worker_content_last_success_timestamp",
		Help: "Unix timestamp of the last successful content run",
	})

	return wm
}

// RecordRun counts one run with its outcome.
func (m *Metrics) RecordRun(outcome string) {
	m.runs.WithLabelValues(outcome).Inc()
}

// ObserveRunDuration observes how long a run took, in seconds.
func (m *Metrics) ObserveRunDuration(seconds float64) {
	m.runSeconds.Observe(seconds)
}

// AddAssignments adds a run's assignment count to the total.
func (m *Metrics) AddAssignments(n int) {
	m.assignments.Add(float64(n))
}

// MarkSuccess marks now as the last run that produced content.
func (m *Metrics) MarkSuccess() {
	m.lastSuccess.SetToCurrentTime()
}
