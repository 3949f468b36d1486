// Package config reads typed configuration values from the environment.
// Every getter falls back to its default on unset or unparsable values, with
// a warning logged, so a broken environment degrades the binary instead of
// stopping it.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvString returns the variable's value, or fallback when the
// variable is unset or empty.
func EnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvInt parses the variable as a base-10 integer.
//
//	port := EnvInt("HEALTH_PORT", 8081)
func EnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	// Sscanfは先頭の数字だけ読む
	n := 0
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		warnBadValue(key, raw, "integer", err)
		return fallback
	}
	return n
}

// EnvBool parses the variable with strconv.ParseBool, so the accepted
// spellings are 1/t/T/true/TRUE/True and their false counterparts.
func EnvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	flag, err := strconv.ParseBool(raw)
	if err != nil {
		warnBadValue(key, raw, "boolean", err)
		return fallback
	}
	return flag
}

// EnvDuration parses the variable with time.ParseDuration ("90s",
// "1h30m").
func EnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		warnBadValue(key, raw, "duration", err)
		return fallback
	}
	return d
}

// EnvStringList splits the variable on commas, trimming whitespace and
// dropping empty segments. A variable that yields no segments counts as
// unset.
//
//	feeds := EnvStringList("DISCOVERY_FEED_URLS", nil)
func EnvStringList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	values := make([]string, 0, strings.Count(raw, ",")+1)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}

func warnBadValue(key, raw, kind string, err error) {
	attrs := []any{slog.String("key", key), slog.String("value", raw)}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	slog.Warn("ignoring unparsable "+kind+" environment variable, using default", attrs...)
}
