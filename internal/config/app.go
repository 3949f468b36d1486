// Package config assembles the application configuration: environment
// variables for service settings, plus a YAML content plan describing what
// to write and when.
package config

import (
	"fmt"
	"strings"
	"time"

	"contentforge/internal/domain/entity"
	pkgconfig "contentforge/pkg/config"
)

// AppConfig holds everything the API server, worker, and CLI share.
type AppConfig struct {
	CMS       CMSConfig
	AI        AIConfig
	Fetch     FetchConfig
	Notify    NotifyConfig
	API       APIConfig
	Discovery DiscoveryConfig
}

// CMSConfig points the pipeline at the WordPress-compatible site.
type CMSConfig struct {
	// BaseURL is the site root, e.g. "https://blog.example.com".
	// Loaded from CMS_BASE_URL.
	BaseURL string

	// Username and AppPassword authenticate write operations via an
	// Application Password. Loaded from CMS_USERNAME / CMS_APP_PASSWORD.
	Username    string
	AppPassword string

	// JWTToken authenticates via a JWT auth plugin session instead.
	// Loaded from CMS_JWT_TOKEN. Application Password wins when both are set.
	JWTToken string

	// RequestsPerSecond paces requests against the site.
	// Loaded from CMS_REQUESTS_PER_SECOND. Default: 2.
	RequestsPerSecond int
}

// HasCredentials reports whether any write-capable credentials are present.
func (c *CMSConfig) HasCredentials() bool {
	return (c.Username != "" && c.AppPassword != "") || c.JWTToken != ""
}

// AIConfig selects the draft generation provider.
type AIConfig struct {
	// Provider is "claude", "openai", or "noop".
	// Loaded from AI_PROVIDER. Default: "claude".
	Provider string

	// AnthropicAPIKey is loaded from ANTHROPIC_API_KEY.
	AnthropicAPIKey string

	// OpenAIAPIKey is loaded from OPENAI_API_KEY.
	OpenAIAPIKey string
}

// FetchConfig tunes the outbound multi-route fetch client.
type FetchConfig struct {
	// Timeout per attempt. Loaded from FETCH_TIMEOUT. Default: 30s.
	Timeout time.Duration

	// ProxiesEnabled turns the proxy fallback chain on or off.
	// Loaded from FETCH_PROXIES_ENABLED. Default: true.
	ProxiesEnabled bool
}

// NotifyConfig configures run-completion webhooks.
type NotifyConfig struct {
	// SlackWebhookURL is loaded from SLACK_WEBHOOK_URL; empty disables Slack.
	SlackWebhookURL string

	// DiscordWebhookURL is loaded from DISCORD_WEBHOOK_URL; empty disables
	// Discord.
	DiscordWebhookURL string

	// Timeout per webhook delivery. Loaded from NOTIFY_TIMEOUT. Default: 10s.
	Timeout time.Duration
}

// APIConfig configures the wizard-facing HTTP server.
type APIConfig struct {
	// Addr is the listen address. Loaded from API_ADDR. Default: ":8080".
	Addr string

	// BearerToken guards the API when non-empty.
	// Loaded from API_BEARER_TOKEN.
	BearerToken string

	// AllowedOrigins is the CORS allow-list for the browser wizard.
	// Loaded from CORS_ALLOWED_ORIGINS (comma-separated).
	AllowedOrigins []string

	// RequestTimeout bounds one API request. Generation endpoints run whole
	// batches synchronously, so this is generous by default.
	// Loaded from API_REQUEST_TIMEOUT. Default: 10m.
	RequestTimeout time.Duration
}

// DiscoveryConfig seeds topic discovery.
type DiscoveryConfig struct {
	// SitemapURL is the sitemap to mine for topics.
	// Loaded from DISCOVERY_SITEMAP_URL.
	SitemapURL string

	// FeedURLs are RSS/Atom feeds to mine for topics.
	// Loaded from DISCOVERY_FEED_URLS (comma-separated).
	FeedURLs []string

	// StaleAfter marks posts unmodified for this long as rewrite candidates.
	// Loaded from DISCOVERY_STALE_AFTER. Default: 2160h (90 days).
	StaleAfter time.Duration
}

// LoadAppConfig loads the application configuration from environment
// variables and validates it. Missing optional values fall back to defaults;
// only values that would make the services unusable produce an error.
func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		CMS: CMSConfig{
			BaseURL:           pkgconfig.EnvString("CMS_BASE_URL", ""),
			Username:          pkgconfig.EnvString("CMS_USERNAME", ""),
			AppPassword:       pkgconfig.EnvString("CMS_APP_PASSWORD", ""),
			JWTToken:          pkgconfig.EnvString("CMS_JWT_TOKEN", ""),
			RequestsPerSecond: pkgconfig.EnvInt("CMS_REQUESTS_PER_SECOND", 2),
		},
		AI: AIConfig{
			Provider:        strings.ToLower(pkgconfig.EnvString("AI_PROVIDER", "claude")),
			AnthropicAPIKey: pkgconfig.EnvString("ANTHROPIC_API_KEY", ""),
			OpenAIAPIKey:    pkgconfig.EnvString("OPENAI_API_KEY", ""),
		},
		Fetch: FetchConfig{
			Timeout:        pkgconfig.EnvDuration("FETCH_TIMEOUT", 30*time.Second),
			ProxiesEnabled: pkgconfig.EnvBool("FETCH_PROXIES_ENABLED", true),
		},
		Notify: NotifyConfig{
			SlackWebhookURL:   pkgconfig.EnvString("SLACK_WEBHOOK_URL", ""),
			DiscordWebhookURL: pkgconfig.EnvString("DISCORD_WEBHOOK_URL", ""),
			Timeout:           pkgconfig.EnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		},
		API: APIConfig{
			Addr:           pkgconfig.EnvString("API_ADDR", ":8080"),
			BearerToken:    pkgconfig.EnvString("API_BEARER_TOKEN", ""),
			AllowedOrigins: pkgconfig.EnvStringList("CORS_ALLOWED_ORIGINS", nil),
			RequestTimeout: pkgconfig.EnvDuration("API_REQUEST_TIMEOUT", 10*time.Minute),
		},
		Discovery: DiscoveryConfig{
			SitemapURL: pkgconfig.EnvString("DISCOVERY_SITEMAP_URL", ""),
			FeedURLs:   pkgconfig.EnvStringList("DISCOVERY_FEED_URLS", nil),
			StaleAfter: pkgconfig.EnvDuration("DISCOVERY_STALE_AFTER", 90*24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration correctness. URLs and the provider choice
// are checked here; credentials are only checked for presence pairing, since
// their validity can only be proven against the live CMS.
func (c *AppConfig) Validate() error {
	if c.CMS.BaseURL != "" {
		if err := entity.ValidateURL(c.CMS.BaseURL); err != nil {
			return fmt.Errorf("CMS_BASE_URL: %w", err)
		}
	}

	if c.CMS.Username != "" && c.CMS.AppPassword == "" {
		return fmt.Errorf("CMS_USERNAME is set but CMS_APP_PASSWORD is empty")
	}
	if c.CMS.AppPassword != "" && c.CMS.Username == "" {
		return fmt.Errorf("CMS_APP_PASSWORD is set but CMS_USERNAME is empty")
	}

	switch c.AI.Provider {
	case "claude", "openai", "noop":
	default:
		return fmt.Errorf("AI_PROVIDER must be claude, openai, or noop, got %q", c.AI.Provider)
	}
	if c.AI.Provider == "claude" && c.AI.AnthropicAPIKey == "" {
		return fmt.Errorf("AI_PROVIDER is claude but ANTHROPIC_API_KEY is empty")
	}
	if c.AI.Provider == "openai" && c.AI.OpenAIAPIKey == "" {
		return fmt.Errorf("AI_PROVIDER is openai but OPENAI_API_KEY is empty")
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	if c.Notify.Timeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive")
	}
	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("API_REQUEST_TIMEOUT must be positive")
	}

	if c.Discovery.SitemapURL != "" {
		if err := entity.ValidateURL(c.Discovery.SitemapURL); err != nil {
			return fmt.Errorf("DISCOVERY_SITEMAP_URL: %w", err)
		}
	}
	for _, feedURL := range c.Discovery.FeedURLs {
		if err := entity.ValidateURL(feedURL); err != nil {
			return fmt.Errorf("DISCOVERY_FEED_URLS entry %q: %w", feedURL, err)
		}
	}
	if c.Discovery.StaleAfter < 0 {
		return fmt.Errorf("DISCOVERY_STALE_AFTER must not be negative")
	}

	return nil
}
