package generator

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DraftMetricsRecorder receives draft-generation measurements. Abstracting
// the recorder keeps the providers testable with a plain in-memory mock and
// leaves room to swap Prometheus out later:
//
//	type mockRecorder struct {
//	    wordCounts []int
//	}
//
//	func (m *mockRecorder) RecordWordCount(words int) {
//	    m.wordCounts = append(m.wordCounts, words)
//	}
type DraftMetricsRecorder interface {
	// RecordWordCount records the length of a generated draft in words.
	RecordWordCount(words int)

	// RecordParseFailure counts a provider response that could not be
	// parsed into a draft.
	RecordParseFailure()

	// RecordCompliance records whether a draft reached the configured
	// word target.
	RecordCompliance(onTarget bool)

	// RecordDuration records how long one draft took to generate.
	RecordDuration(elapsed time.Duration)
}

// PrometheusDraftMetrics records draft measurements to the default
// Prometheus registry.
type PrometheusDraftMetrics struct {
	wordCountHistogram prometheus.Histogram
	parseFailCounter   prometheus.Counter
	complianceGauge    prometheus.Gauge
	durationHistogram  prometheus.Histogram
}

var (
	draftMetrics     *PrometheusDraftMetrics
	draftMetricsOnce sync.Once
)

// getOrRegister adds the collector to the default registry. When a collector
// with the same fully qualified name already exists, the existing one is
// returned so repeated construction in tests does not panic.
func getOrRegister[C prometheus.Collector](collector C) C {
	err := prometheus.Register(collector)
	if err == nil {
		return collector
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return are.ExistingCollector.(C)
	}
	panic(err)
}

// NewPrometheusDraftMetrics returns the process-wide draft metrics recorder,
// creating and registering the underlying series on first use.
func NewPrometheusDraftMetrics() *PrometheusDraftMetrics {
	draftMetricsOnce.Do(func() {
		draftMetrics = &PrometheusDraftMetrics{
			wordCountHistogram: getOrRegister(prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "article_draft_word_count",
				Help:    "Distribution of generated draft lengths in words",
				Buckets: []float64{200, 400, 600, 800, 1000, 1200, 1500, 2000, 3000, 5000},
			})),
			parseFailCounter: getOrRegister(prometheus.NewCounter(prometheus.CounterOpts{
				Name: "article_draft_parse_failures_total",
				Help: "Total number of provider responses that could not be parsed into a draft",
			})),
			complianceGauge: getOrRegister(prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "article_draft_word_target_compliance_ratio",
				Help: "Whether the most recent draft reached the word target (0.0 or 1.0)",
			})),
			durationHistogram: getOrRegister(prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "article_draft_generation_duration_seconds",
				Help:    "Time taken to generate a draft via AI API",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s ~ 512s
			})),
		}
	})
	return draftMetrics
}

func (p *PrometheusDraftMetrics) RecordWordCount(words int) {
	p.wordCountHistogram.Observe(float64(words))
}

func (p *PrometheusDraftMetrics) RecordParseFailure() { p.parseFailCounter.Inc() }

func (p *PrometheusDraftMetrics) RecordCompliance(onTarget bool) {
	v := 0.0
	if onTarget {
		v = 1.0
	}
	p.complianceGauge.Set(v)
}

func (p *PrometheusDraftMetrics) RecordDuration(elapsed time.Duration) {
	p.durationHistogram.Observe(elapsed.Seconds())
}
