package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadResult represents the result of loading one configuration value.
// Loading never fails hard: invalid values fall back to the default and the
// warnings explain what was ignored, so a typo in one env var cannot keep
// the worker from starting.
type LoadResult struct {
	Value           any      // the loaded value, or the default when a fallback applied
	Warnings        []string // one message per fallback applied
	FallbackApplied bool     // true when a parse or validation failure forced the default
}

func loaded(value any) LoadResult {
	return LoadResult{Value: value}
}

func fellBack(key, raw string, cause error, fallback any) LoadResult {
	warning := fmt.Sprintf("Invalid %s='%s' (%v), falling back to default '%v'", key, raw, cause, fallback)
	return LoadResult{Value: fallback, Warnings: []string{warning}, FallbackApplied: true}
}

// validated runs the optional validator over a parsed value and packs the
// outcome.
func validated[T any](key, raw string, parsed T, fallback any, validator func(T) error) LoadResult {
	if validator == nil {
		return loaded(parsed)
	}
	if err := validator(parsed); err != nil {
		return fellBack(key, raw, err, fallback)
	}
	return loaded(parsed)
}

// LoadEnvString loads a string from an environment variable, returning the
// default when unset. No validation is performed; use LoadEnvWithFallback
// when a validator is needed.
func LoadEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadEnvWithFallback loads a string from an environment variable, validates
// it, and falls back to the default with a warning when validation fails.
// An unset variable uses the default silently.
//
//	result := LoadEnvWithFallback("CRON_SCHEDULE", "30 5 * * *", ValidateCronSchedule)
//	schedule := result.Value.(string)
func LoadEnvWithFallback(key, fallback string, validator func(string) error) LoadResult {
	raw := os.Getenv(key)
	if raw == "" {
		return loaded(fallback)
	}
	return validated(key, raw, raw, fallback, validator)
}

// LoadEnvDuration loads a Go duration ("30s", "5m", "1h30m") from an
// environment variable, validates it, and falls back to the default with a
// warning when parsing or validation fails.
//
//	result := LoadEnvDuration("RUN_TIMEOUT", 30*time.Minute, ValidatePositiveDuration)
//	timeout := result.Value.(time.Duration)
func LoadEnvDuration(key string, fallback time.Duration, validator func(time.Duration) error) LoadResult {
	raw := os.Getenv(key)
	if raw == "" {
		return loaded(fallback)
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fellBack(key, raw, err, fallback)
	}
	return validated(key, raw, parsed, fallback, validator)
}

// LoadEnvInt loads an integer from an environment variable, validates it,
// and falls back to the default with a warning when parsing or validation
// fails. Parsing goes through fmt.Sscanf, so surrounding whitespace is
// tolerated and trailing junk after the digits is ignored.
//
//	result := LoadEnvInt("WORKER_HEALTH_PORT", 9090, func(v int) error { return ValidateIntRange(v, 1024, 65535) })
//	port := result.Value.(int)
func LoadEnvInt(key string, fallback int, validator func(int) error) LoadResult {
	raw := os.Getenv(key)
	if raw == "" {
		return loaded(fallback)
	}

	parsed := 0
	if _, err := fmt.Sscanf(raw, "%d", &parsed); err != nil {
		return fellBack(key, raw, errors.New("invalid integer format"), fallback)
	}
	return validated(key, raw, parsed, fallback, validator)
}

// LoadEnvBool loads a boolean from an environment variable. Only the
// strconv.ParseBool spellings are accepted; anything else falls back to the
// default with a warning.
//
//	result := LoadEnvBool("DRY_RUN", true)
//	dryRun := result.Value.(bool)
func LoadEnvBool(key string, fallback bool) LoadResult {
	raw := os.Getenv(key)
	if raw == "" {
		return loaded(fallback)
	}

	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fellBack(key, raw, errors.New("invalid boolean format, expected 'true' or 'false'"), fallback)
	}
	return loaded(parsed)
}
