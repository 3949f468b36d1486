package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LoadMetrics tracks configuration health for one component: when config
// was last loaded, which fields failed validation, and whether any field is
// running on its fallback default. Alerting on config_fallback_active
// catches the "typo in one env var, silently on defaults" failure mode.
type LoadMetrics struct {
	LoadedAt  prometheus.Gauge       // unix time of the last load, set on every (re)load
	Invalid   *prometheus.CounterVec // validation failures by field name
	Fallbacks *prometheus.CounterVec // fallbacks applied by field name
	Degraded  prometheus.Gauge       // 1 while at least one field runs on its fallback
}

// NewLoadMetrics registers the config metric set for a component with the
// default Prometheus registry. The component name prefixes every metric
// ("worker" gives worker_config_load_timestamp and so on), so each component
// must use a distinct name or promauto panics on the duplicate.
func NewLoadMetrics(component string) *LoadMetrics {
	lm := &LoadMetrics{}

	lm.LoadedAt = promauto.NewGauge(prometheus.GaugeOpts{
		Name: component + "_config_load_timestamp",
		Help: fmt.Sprintf("Unix timestamp of last %s configuration load", component),
	})
	lm.Invalid = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: component + "_config_validation_errors_total",
		Help: fmt.Sprintf("Validation failures for %s configuration by field", component),
	}, []string{"field"})
	lm.Fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: component + "_config_fallbacks_total",
		Help: fmt.Sprintf("Defaults applied for %s configuration by field", component),
	}, []string{"field"})
	lm.Degraded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: component + "_config_fallback_active",
		Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", component),
	})

	return lm
}

// RecordLoadTimestamp marks now as the last configuration load.
func (m *LoadMetrics) RecordLoadTimestamp() { m.LoadedAt.SetToCurrentTime() }

// RecordValidationError counts a validation failure for the given field.
func (m *LoadMetrics) RecordValidationError(field string) {
	m.Invalid.WithLabelValues(field).Inc()
}

// RecordFallback counts a fallback-to-default for the given field.
func (m *LoadMetrics) RecordFallback(field string) {
	m.Fallbacks.WithLabelValues(field).Inc()
}

// SetFallbackActive flips the degraded gauge. Callers set it once per load
// from the aggregate "did any field fall back" result.
func (m *LoadMetrics) SetFallbackActive(on bool) {
	v := 0.0
	if on {
		v = 1
	}
	m.Degraded.Set(v)
}
