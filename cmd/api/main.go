package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contentforge/internal/config"
	"contentforge/internal/infra/extract"
	"contentforge/internal/infra/feeds"
	"contentforge/internal/infra/generator"
	"contentforge/internal/infra/wordpress"
	"contentforge/internal/observability/logging"
	"contentforge/internal/observability/tracing"
	"contentforge/internal/resilience/circuitbreaker"
	"contentforge/internal/sitemap"
	"contentforge/internal/webfetch"
	pkgconfig "contentforge/pkg/config"

	"contentforge/internal/usecase/pipeline"
	topicsUC "contentforge/internal/usecase/topics"

	hhttp "contentforge/internal/handler/http"
	hgenerate "contentforge/internal/handler/http/generate"
	"contentforge/internal/handler/http/middleware"
	"contentforge/internal/handler/http/requestid"
	hsite "contentforge/internal/handler/http/site"
	htopics "contentforge/internal/handler/http/topics"
)

func main() {
	logger := logging.New()
	slog.SetDefault(logger)

	cfg, err := config.LoadAppConfig()
	if err != nil {
		fatal(logger, "failed to load application configuration", err)
	}

	run(logger, cfg, buildServer(logger, cfg), buildInfo())
}

// fatal logs a startup failure and exits. Deferred functions do not run.
func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}

// buildInfo reports the version baked into the deployment environment.
func buildInfo() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}

// serverParts carries what run needs beyond the configuration.
type serverParts struct {
	handler http.Handler

	// limiter is nil when rate limiting is disabled; it wants a periodic
	// cleanup goroutine while the server is up.
	limiter *middleware.RateLimiter
}

// buildServer wires the fetch client, provider adapters, services, routes,
// and middleware into a ready-to-serve handler.
func buildServer(logger *slog.Logger, cfg *config.AppConfig) *serverParts {
	fetcher := newFetchClient(logger, cfg.Fetch)
	gen := newGenerator(logger, cfg.AI)
	extractor := extract.NewExtractor(fetcher)
	feedFetcher := feeds.NewFeedFetcher(fetcher)
	resolver := sitemap.NewResolver(fetcher, 0)
	cmsClient := newCMSClient(logger, fetcher, cfg.CMS)

	var publisher pipeline.Publisher
	var postLister topicsUC.PostLister
	if cmsClient != nil {
		publisher = cmsClient
		postLister = cmsClient
	}

	topicsSvc := topicsUC.NewDiscovery(resolver, postLister, feedFetcher)
	pipelineSvc := pipeline.NewRunner(gen, publisher, extractor, nil)

	// Upstream circuit breakers feed the health and readiness endpoints.
	breakers := []*circuitbreaker.Breaker{feedFetcher.Breaker(), extractor.Breaker()}
	if gb, ok := gen.(interface {
		Breaker() *circuitbreaker.Breaker
	}); ok {
		breakers = append(breakers, gb.Breaker())
	}
	if cmsClient != nil {
		breakers = append(breakers, cmsClient.Breaker())
	}

	limiter := newRateLimiter(logger)

	mux := buildRoutes(routeDeps{
		cfg:      cfg,
		connect:  hsite.NewConnector(fetcher),
		topics:   topicsSvc,
		pipeline: pipelineSvc,
		health: &hhttp.Health{
			Version:          buildInfo(),
			CMSConfigured:    cmsClient != nil,
			CMSAuthenticated: cmsClient != nil && cmsClient.Authenticated(),
			Provider:         cfg.AI.Provider,
			Breakers:         breakers,
		},
		breakers: breakers,
		limiter:  limiter,
	})

	return &serverParts{
		handler: applyMiddleware(logger, cfg, mux),
		limiter: limiter,
	}
}

// newFetchClient builds the outbound multi-route fetch client.
func newFetchClient(logger *slog.Logger, cfg config.FetchConfig) *webfetch.Client {
	fc := webfetch.Defaults()
	fc.RequestTimeout = cfg.Timeout
	if !cfg.ProxiesEnabled {
		fc.Proxies = nil
	}

	client, err := webfetch.NewClient(fc)
	if err != nil {
		fatal(logger, "failed to create fetch client", err)
	}
	return client
}

// newCMSClient builds the WordPress client from the environment, or returns
// nil when no CMS is configured. The connection is optional here because the
// wizard can also submit connection settings per request; without it,
// post-based discovery and live publishing are unavailable.
func newCMSClient(logger *slog.Logger, fetcher *webfetch.Client, cfg config.CMSConfig) *wordpress.Client {
	if cfg.BaseURL == "" {
		logger.Warn("no cms configured, connection settings must come from the wizard")
		return nil
	}

	client, err := wordpress.NewClient(fetcher, wordpress.Config{
		BaseURL:           cfg.BaseURL,
		Auth:              wordpress.SelectAuth(cfg.Username, cfg.AppPassword, cfg.JWTToken),
		RequestsPerSecond: float64(cfg.RequestsPerSecond),
	})
	if err != nil {
		fatal(logger, "failed to create cms client", err)
	}

	logger.Info("cms client initialized",
		slog.String("base_url", cfg.BaseURL), slog.Bool("authenticated", client.Authenticated()))
	return client
}

// newGenerator selects the draft generation provider. Key presence was
// checked with the application configuration, so this only constructs.
func newGenerator(logger *slog.Logger, cfg config.AIConfig) pipeline.Generator {
	switch cfg.Provider {
	case "claude":
		logger.Info("using Claude API for draft generation", slog.String("provider", "claude"))
		return generator.NewClaudeDrafter(cfg.AnthropicAPIKey)
	case "openai":
		genConfig, err := generator.LoadOpenAISettings()
		if err != nil {
			fatal(logger, "failed to load OpenAI generator configuration", err)
		}
		logger.Info("using OpenAI API for draft generation",
			slog.String("provider", "openai"), slog.Int("word_count", genConfig.GetWordCount()))
		return generator.NewOpenAIDrafter(cfg.OpenAIAPIKey, genConfig)
	default:
		logger.Warn("using noop draft generator, drafts will be placeholders")
		return generator.NewPlaceholder()
	}
}

// newRateLimiter builds the per-IP limiter guarding the API endpoints.
// Generation runs burn AI tokens, so the default is conservative.
//
// Environment variables:
//   - API_RATE_LIMIT_PER_MINUTE: Requests per client IP per minute
//     (default: 30; 0 disables rate limiting)
//   - API_TRUST_PROXY / API_TRUSTED_PROXIES: see middleware.LoadProxyTrust
func newRateLimiter(logger *slog.Logger) *middleware.RateLimiter {
	perMinute := pkgconfig.EnvInt("API_RATE_LIMIT_PER_MINUTE", 30)
	if perMinute <= 0 {
		logger.Warn("rate limiting disabled by configuration")
		return nil
	}

	trust, err := middleware.LoadProxyTrust()
	if err != nil {
		fatal(logger, "failed to load trusted proxy configuration", err)
	}

	logger.Info("rate limiting initialized", slog.Int("limit_per_minute", perMinute))
	return middleware.NewRateLimiter(perMinute, time.Minute, clientIPSource(logger, trust))
}

// clientIPSource decides how clients are identified for rate limiting.
// Proxy headers are honored only against an explicit trusted-proxy list.
func clientIPSource(logger *slog.Logger, trust middleware.ProxyTrust) middleware.ClientIPSource {
	if len(trust.Ranges) == 0 {
		logger.Info("rate limiting: proxy headers ignored, clients identified by RemoteAddr")
		return middleware.PeerAddrSource{}
	}

	logger.Info("rate limiting: trusted proxy mode enabled", slog.Int("trusted_proxies", len(trust.Ranges)))
	return middleware.NewProxyHeaderSource(trust)
}

// routeDeps bundles everything the route table needs.
type routeDeps struct {
	cfg      *config.AppConfig
	connect  hsite.ConnectFunc
	topics   *topicsUC.Discovery
	pipeline *pipeline.Runner
	health   *hhttp.Health
	breakers []*circuitbreaker.Breaker
	limiter  *middleware.RateLimiter
}

// buildRoutes registers all HTTP routes, public and protected.
func buildRoutes(d routeDeps) *http.ServeMux {
	// ヘルスチェックエンドポイント（認証不要）
	public := http.NewServeMux()
	public.Handle("/healthz", d.health)
	public.HandleFunc("/ready", d.health.Ready)
	public.HandleFunc("/live", d.health.Alive)
	public.Handle("/metrics", hhttp.PrometheusHandler())

	private := http.NewServeMux()
	hsite.Register(private, d.connect)
	htopics.Register(private, d.topics, htopics.Defaults{
		SitemapURL: d.cfg.Discovery.SitemapURL,
		FeedURLs:   d.cfg.Discovery.FeedURLs,
		StaleAfter: d.cfg.Discovery.StaleAfter,
	})
	hgenerate.Register(private, d.pipeline)

	// Bearer auth protects the API endpoints; the rate limiter sits outside
	// it so failed auth attempts also count against the caller's budget.
	protected := hhttp.BearerAuth(d.cfg.API.BearerToken)(private)
	if d.limiter != nil {
		protected = d.limiter.Limit(protected)
	}

	root := http.NewServeMux()
	for _, path := range []string{"/healthz", "/ready", "/live", "/metrics"} {
		root.Handle(path, public)
	}
	root.Handle("/", protected)

	return root
}

// applyMiddleware wraps the handler with the middleware chain, listed here
// outermost first.
func applyMiddleware(logger *slog.Logger, cfg *config.AppConfig, handler http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		setupCORS(logger, cfg.API.AllowedOrigins),
		requestid.NewHandler,
		tracing.NewHandler,
		hhttp.Recoverer(logger),
		hhttp.AccessLog(logger),
		hhttp.RequestLimits(),
		hhttp.BodyLimit(1 << 20), // 1MBまで
		hhttp.Timeout(cfg.API.RequestTimeout),
		hhttp.Instrument,
	}

	wrapped := handler
	for i := len(chain) - 1; i >= 0; i-- {
		wrapped = chain[i](wrapped)
	}
	return wrapped
}

// setupCORS builds the CORS middleware for the browser wizard. No configured
// origins means no CORS headers at all: command-line clients keep working,
// browser pages on other origins are refused by their own same-origin policy.
func setupCORS(logger *slog.Logger, allowed []string) func(http.Handler) http.Handler {
	if len(allowed) == 0 {
		logger.Warn("CORS disabled: no allowed origins configured, the browser wizard will not work cross-origin")
		return func(next http.Handler) http.Handler { return next }
	}

	policy, err := middleware.NewCORSPolicy(allowed)
	if err != nil {
		fatal(logger, "failed to load CORS configuration", err)
	}
	policy.Log = logger

	logger.Info("CORS enabled", slog.Any("allowed_origins", policy.AllowedOrigins),
		slog.Any("allowed_methods", policy.AllowedMethods), slog.Int("max_age", policy.MaxAge))
	return middleware.CORS(policy)
}

// run starts the HTTP server and blocks until a shutdown signal drains it.
func run(logger *slog.Logger, cfg *config.AppConfig, parts *serverParts, version string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if parts.limiter != nil {
		go hhttp.StartRateLimitCleanup(ctx, parts.limiter, hhttp.LoadCleanupInterval(), "api")
	}

	srv := &http.Server{Addr: cfg.API.Addr, Handler: parts.handler}
	// Slowloris対策
	srv.ReadHeaderTimeout = 10 * time.Second
	srv.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		logger.Info("api server starting", slog.String("addr", cfg.API.Addr), slog.String("version", version))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server failed", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Generation requests can legitimately run for minutes; give in-flight
	// batches a moment to settle, then cut them. Posts publish one at a
	// time, so an interrupted batch leaves the CMS consistent.
	drainCtx, release := context.WithTimeout(context.Background(), 30*time.Second)
	defer release()
	if err := srv.Shutdown(drainCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
	logger.Info("api server stopped")
}
