package webfetch

import (
	"fmt"
	"time"
)

// Config holds the configuration for the multi-route fetch client.
type Config struct {
	// RequestTimeout caps a single HTTP request, applied independently to
	// the direct attempt and to each proxy attempt.
	// Default: 30s
	RequestTimeout time.Duration

	// BodyLimit is the maximum response body size in bytes.
	// Enforced while reading, not from the Content-Length header.
	// Default: 10485760 (10MB)
	BodyLimit int64

	// RedirectLimit is the maximum number of redirects followed per attempt.
	// Default: 5
	RedirectLimit int

	// UserAgent is sent when the caller supplies no User-Agent header.
	UserAgent string

	// Proxies is the ordered fallback chain consulted after a direct
	// transport failure. Empty means direct-only.
	Proxies []ProxyDescriptor
}

// Defaults returns a production-ready fetch configuration with the standard
// public proxy chain.
func Defaults() Config {
	return Config{
		RequestTimeout: 30 * time.Second,
		BodyLimit:      10 * 1024 * 1024, // 10MB
		RedirectLimit:  5,
		UserAgent:      "ContentForgeBot/1.0",
		Proxies:        DefaultProxies(),
	}
}

// Validate checks the configuration for values that would make the client
// unsafe to operate.
func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", c.RequestTimeout)
	}

	const floorBytes, ceilBytes = int64(1024), int64(100 * 1024 * 1024) // 1KB..100MB
	if c.BodyLimit < floorBytes || c.BodyLimit > ceilBytes {
		return fmt.Errorf("body limit must be between %d and %d bytes, got %d", floorBytes, ceilBytes, c.BodyLimit)
	}

	if c.RedirectLimit < 0 || c.RedirectLimit > 10 {
		return fmt.Errorf("redirect limit must be between 0 and 10, got %d", c.RedirectLimit)
	}

	for i, p := range c.Proxies {
		if p.Name == "" || p.BuildURL == nil {
			return fmt.Errorf("proxy descriptor %d is incomplete", i)
		}
	}

	return nil
}
