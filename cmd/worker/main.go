package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"contentforge/internal/config"
	"contentforge/internal/domain/entity"
	"contentforge/internal/handler/http/respond"
	"contentforge/internal/infra/extract"
	"contentforge/internal/infra/generator"
	"contentforge/internal/infra/notifier"
	"contentforge/internal/infra/wordpress"
	workerPkg "contentforge/internal/infra/worker"
	"contentforge/internal/observability/logging"
	"contentforge/internal/usecase/pipeline"
	topicsUC "contentforge/internal/usecase/topics"
	"contentforge/internal/webfetch"
)

func main() {
	logger := logging.New()
	slog.SetDefault(logger)

	cfg, err := config.LoadAppConfig()
	if err != nil {
		fatal(logger, "failed to load application configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := workerPkg.NewMetrics()
	workerCfg := workerPkg.LoadFromEnv(logger, metrics)

	// The content plan's schedule section overrides the environment when set.
	plan := loadContentPlan(logger, workerCfg)

	logger.Info("worker configured",
		slog.String("cron_schedule", workerCfg.Schedule), slog.String("timezone", workerCfg.Zone),
		slog.Duration("run_timeout", workerCfg.RunTimeout), slog.Int("health_port", workerCfg.ProbePort),
		slog.String("plan_path", workerCfg.PlanPath))

	startMetricsServer(ctx, logger)

	runScheduler(ctx, logger, schedulerDeps{
		services: buildServices(logger, cfg, newNotifier(logger, cfg.Notify)),
		plan:     plan,
		cfg:      workerCfg,
		metrics:  metrics,
		health:   startProbeServer(ctx, logger, workerCfg.ProbePort),
	})
}

// fatal logs a startup failure and exits. Deferred functions do not run.
func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}

// startProbeServer runs the probe endpoints in the background.
func startProbeServer(ctx context.Context, logger *slog.Logger, port int) *workerPkg.ProbeServer {
	addr := fmt.Sprintf(":%d", port)
	srv := workerPkg.NewProbeServer(logger, addr)

	go func() {
		err := srv.Start(ctx)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health check server failed", slog.Any("error", err))
		}
	}()

	logger.Info("health check server started", slog.String("addr", addr))
	return srv
}

// loadContentPlan loads the plan file named by the worker configuration.
// No configured path means the worker runs on stale-post rewrites alone. A
// path that fails to load is fatal: silently running without the planned
// topics would look like a healthy worker that never writes anything.
func loadContentPlan(logger *slog.Logger, cfg *workerPkg.Config) *config.Plan {
	if cfg.PlanPath == "" {
		logger.Info("no content plan configured, runs rewrite stale posts only")
		return nil
	}

	plan, err := config.LoadPlan(cfg.PlanPath)
	if err != nil {
		fatal(logger.With(slog.String("path", cfg.PlanPath)), "failed to load content plan", err)
	}

	// The plan was validated on load, so its schedule values are safe to
	// adopt over the environment's.
	if plan.Schedule.Cron != "" {
		cfg.Schedule = plan.Schedule.Cron
	}
	if plan.Schedule.Timezone != "" {
		cfg.Zone = plan.Schedule.Timezone
	}

	logger.Info("content plan loaded",
		slog.String("path", cfg.PlanPath), slog.Int("topics", len(plan.Topics)),
		slog.Bool("rewrites_enabled", plan.Rewrites.Enabled))
	return plan
}

// pipelineServices bundles what a scheduled run needs.
type pipelineServices struct {
	pipeline *pipeline.Runner
	topics   *topicsUC.Discovery

	// cmsConfigured reports whether live publishing is possible. Without it
	// every run degrades to dry run.
	cmsConfigured bool

	// staleAfter is the rewrite threshold when no plan overrides it.
	staleAfter time.Duration
}

// buildServices creates and wires the generation pipeline with all its
// dependencies.
func buildServices(logger *slog.Logger, cfg *config.AppConfig, runNotifier notifier.Notifier) *pipelineServices {
	fc := webfetch.Defaults()
	fc.RequestTimeout = cfg.Fetch.Timeout
	if !cfg.Fetch.ProxiesEnabled {
		fc.Proxies = nil
	}

	fetcher, err := webfetch.NewClient(fc)
	if err != nil {
		fatal(logger, "failed to create fetch client", err)
	}

	gen := newGenerator(logger, cfg.AI)

	// Scheduled runs only publish to and list posts from the CMS; the
	// sitemap and feed discovery sources belong to the API and CLI.
	var publisher pipeline.Publisher
	var postLister topicsUC.PostLister
	if cfg.CMS.BaseURL == "" {
		logger.Warn("no cms configured, scheduled runs degrade to dry run")
	} else {
		client, err := wordpress.NewClient(fetcher, wordpress.Config{
			BaseURL:           cfg.CMS.BaseURL,
			Auth:              wordpress.SelectAuth(cfg.CMS.Username, cfg.CMS.AppPassword, cfg.CMS.JWTToken),
			RequestsPerSecond: float64(cfg.CMS.RequestsPerSecond),
		})
		if err != nil {
			fatal(logger, "failed to create cms client", err)
		}
		publisher = client
		postLister = client
		logger.Info("cms client initialized",
			slog.String("base_url", cfg.CMS.BaseURL), slog.Bool("authenticated", client.Authenticated()))
	}

	return &pipelineServices{
		pipeline:      pipeline.NewRunner(gen, publisher, extract.NewExtractor(fetcher), runNotifier),
		topics:        topicsUC.NewDiscovery(nil, postLister, nil),
		cmsConfigured: publisher != nil,
		staleAfter:    cfg.Discovery.StaleAfter,
	}
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

// newNotifier assembles the run notifier from the configured webhooks. Both
// targets can be active at once; with neither configured, runs complete
// silently.
func newNotifier(logger *slog.Logger, cfg config.NotifyConfig) notifier.Notifier {
	var targets []notifier.Notifier

	if sc := slackConfig(logger, cfg); sc.Enabled {
		targets = append(targets, notifier.NewSlackNotifier(sc))
		logger.Info("Slack notifications enabled")
	}
	if dc := discordConfig(logger, cfg); dc.Enabled {
		targets = append(targets, notifier.NewDiscordNotifier(dc))
		logger.Info("Discord notifications enabled")
	}

	if len(targets) == 0 {
		logger.Info("run notifications disabled")
		return notifier.NewNoOpNotifier()
	}
	return notifier.NewMultiNotifier(targets...)
}

// usableWebhook validates a webhook URL for the given service, logging and
// reporting failure instead of aborting the worker.
func usableWebhook(logger *slog.Logger, raw, service, wantHost, wantPathPrefix string) bool {
	if raw == "" {
		return false
	}
	if err := validateWebhookURL(raw, wantHost, wantPathPrefix); err != nil {
		logger.Warn("invalid webhook URL, disabling notifications",
			slog.String("service", service), slog.Any("error", err))
		return false
	}
	return true
}

func slackConfig(logger *slog.Logger, cfg config.NotifyConfig) notifier.SlackConfig {
	if !usableWebhook(logger, cfg.SlackWebhookURL, "slack", "hooks.slack.com", "/services/") {
		return notifier.SlackConfig{}
	}
	return notifier.SlackConfig{Enabled: true, WebhookURL: cfg.SlackWebhookURL, Timeout: cfg.Timeout}
}

func discordConfig(logger *slog.Logger, cfg config.NotifyConfig) notifier.DiscordConfig {
	if !usableWebhook(logger, cfg.DiscordWebhookURL, "discord", "discord.com", "/api/webhooks/") {
		return notifier.DiscordConfig{}
	}
	return notifier.DiscordConfig{Enabled: true, WebhookURL: cfg.DiscordWebhookURL, Timeout: cfg.Timeout}
}

// validateWebhookURL checks that a webhook points at the expected service
// over HTTPS. Webhook URLs embed their auth token, so a mistyped host would
// hand the token to whoever answers.
func validateWebhookURL(webhookURL, wantHost, wantPathPrefix string) error {
	parsed, err := url.Parse(webhookURL)
	if err != nil {
		return fmt.Errorf("parse webhook url: %w", err)
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("webhook url must use https, got %q", parsed.Scheme)
	}
	if parsed.Host != wantHost {
		return fmt.Errorf("webhook host must be %s, got %q", wantHost, parsed.Host)
	}
	if !strings.HasPrefix(parsed.Path, wantPathPrefix) {
		return fmt.Errorf("webhook path must start with %s", wantPathPrefix)
	}
	return nil
}

// schedulerDeps bundles what the cron scheduler and its job need.
type schedulerDeps struct {
	services *pipelineServices
	plan     *config.Plan
	cfg      *workerPkg.Config
	metrics  *workerPkg.Metrics
	health   *workerPkg.ProbeServer
}

// runScheduler starts the cron scheduler, runs the content job on the
// configured schedule, and blocks until the shutdown signal arrives. An
// in-flight run is allowed to settle before the function returns.
func runScheduler(ctx context.Context, logger *slog.Logger, d schedulerDeps) {
	scheduler := cron.New(cron.WithLocation(jobLocation(logger, d.cfg.Zone)))
	if _, err := scheduler.AddFunc(d.cfg.Schedule, func() { runContentJob(logger, d) }); err != nil {
		fatal(logger, "failed to add cron job", err)
	}
	scheduler.Start()

	// cronの配線が済んでからreadyにする
	d.health.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", d.cfg.Schedule), slog.String("timezone", d.cfg.Zone))

	<-ctx.Done()

	logger.Info("shutting down worker...")
	d.health.SetReady(false)

	// Stop scheduling and wait for a running job to finish.
	<-scheduler.Stop().Done()
	logger.Info("worker stopped")
}

// jobLocation resolves the configured timezone, falling back to UTC so a bad
// value cannot keep the worker from starting.
func jobLocation(logger *slog.Logger, tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", tz), slog.Any("error", err))
		return time.UTC
	}
	return loc
}

// runContentJob executes a single generation run with timeout and error
// handling.
func runContentJob(logger *slog.Logger, d schedulerDeps) {
	started := time.Now()
	d.metrics.RecordRun("started")
	logger.Info("scheduled run started")

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.RunTimeout)
	defer cancel()

	finish := func(status string) {
		d.metrics.RecordRun(status)
		d.metrics.ObserveRunDuration(time.Since(started).Seconds())
	}

	assignments, opts := collectAssignments(ctx, logger, d.services, d.plan)

	report, err := d.services.pipeline.Run(ctx, assignments, opts)
	if errors.Is(err, entity.ErrNoAssignments) {
		logger.Info("nothing to generate, skipping run")
		finish("success")
		return
	}
	if err != nil {
		// 機密情報をマスクしてログ出力
		logger.Error("scheduled run failed", slog.String("error", respond.Redact(err)))
		finish("failure")
		d.health.RecordRun("failure")
		return
	}

	finish(report.Status())
	d.metrics.AddAssignments(report.Total())
	if report.Failed == 0 {
		d.metrics.MarkSuccess()
	}
	d.health.RecordRun(report.Status())

	logger.Info("scheduled run completed",
		slog.String("status", report.Status()), slog.Bool("dry_run", report.DryRun),
		slog.Int("assignments", report.Total()), slog.Int("generated", report.Generated),
		slog.Int("published", report.Published), slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration))
}

// collectAssignments gathers the run's work: planned topics first, then
// stale-post rewrites. Without a plan, rewrites are the run's only work and
// use the environment's threshold. A discovery failure degrades: the run
// proceeds with what it has.
func collectAssignments(ctx context.Context, logger *slog.Logger, services *pipelineServices, plan *config.Plan) ([]entity.Assignment, pipeline.Options) {
	opts := pipeline.Options{DryRun: !services.cmsConfigured}

	var assignments []entity.Assignment
	rewriteAfter := services.staleAfter
	rewritesEnabled := true

	if plan != nil {
		assignments = append(assignments, plan.Assignments()...)
		opts.Status = plan.Status()
		rewritesEnabled = plan.Rewrites.Enabled
		if rewritesEnabled {
			rewriteAfter = plan.Rewrites.StaleAfter()
		}
	}

	if rewritesEnabled && services.cmsConfigured {
		rewrites, err := services.topics.FromPosts(ctx, rewriteAfter)
		if err != nil {
			logger.Warn("stale post discovery failed, continuing with planned topics", slog.Any("error", err))
		} else {
			assignments = append(assignments, rewrites...)
		}
	}

	return assignments, opts
}
