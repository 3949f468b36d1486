package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contentforge/internal/pkg/config"
)

// Config controls the scheduled content runs: when they fire, how long one
// run may take, and where the health server listens.
type Config struct {
	// Schedule fires the content run ("30 5 * * *" is 5:30 daily).
	Schedule string

	// Zone is the IANA timezone the schedule is evaluated in.
	Zone string

	// RunTimeout caps one run end to end, discovery included.
	RunTimeout time.Duration

	// ProbePort serves readiness and liveness; 1024-65535.
	ProbePort int

	// PlanPath points at the content plan YAML. When set, the plan's
	// schedule overrides Schedule and Zone, and its topics join every
	// run. Empty means the worker runs from environment alone.
	PlanPath string
}

// Defaults is what the worker falls back to, field by field, when the
// environment is missing or invalid.
func Defaults() Config {
	return Config{Schedule: "30 5 * * *", Zone: "Asia/Tokyo",
		RunTimeout: 30 * time.Minute, ProbePort: 9091}
}

// Validate reports every invalid field at once. PlanPath is not checked
// here; the plan file is parsed and validated on load.
func (c *Config) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Zone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.RunTimeout); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.ProbePort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("worker config: %w", errors.Join(errs...))
	}
	return nil
}

// LoadFromEnv builds the worker configuration from the environment, falling
// back to defaults field by field. It never fails: a bad value is logged,
// counted in the fallback metrics, and replaced by the default, so the
// worker always starts with a schedule it can run.
//
// Variables: CRON_SCHEDULE, WORKER_TIMEZONE, RUN_TIMEOUT (1m-4h),
// WORKER_HEALTH_PORT (1024-65535), CONTENT_PLAN_PATH.
func LoadFromEnv(logger *slog.Logger, m *Metrics) *Config {
	cfg := Defaults()
	anyFallback := false

	record := func(field string, res config.LoadResult) config.LoadResult {
		if res.FallbackApplied {
			anyFallback = true
			m.RecordValidationError(field)
			m.RecordFallback(field)
			for _, w := range res.Warnings {
				logger.Warn("configuration fallback applied",
					slog.String("field", field),
					slog.String("warning", w))
			}
		}
		return res
	}

	cfg.Schedule = record("cron_schedule",
		config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.Schedule, config.ValidateCronSchedule)).Value.(string)

	cfg.Zone = record("timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Zone, config.ValidateTimezone)).Value.(string)

	cfg.RunTimeout = record("run_timeout",
		config.LoadEnvDuration("RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Minute, 4*time.Hour)
		})).Value.(time.Duration)

	cfg.ProbePort = record("health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.ProbePort, func(port int) error {
			return config.ValidateIntRange(port, 1024, 65535)
		})).Value.(int)

	cfg.PlanPath = config.LoadEnvString("CONTENT_PLAN_PATH", cfg.PlanPath)

	m.SetFallbackActive(anyFallback)
	m.RecordLoadTimestamp()

	return &cfg
}
