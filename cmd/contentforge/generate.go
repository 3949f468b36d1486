package main

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"contentforge/internal/config"
	"contentforge/internal/domain/entity"
	"contentforge/internal/infra/extract"
	"contentforge/internal/infra/generator"
	"contentforge/internal/usecase/pipeline"
	topicsUC "contentforge/internal/usecase/topics"
	"contentforge/internal/utils/text"
)

var (
	generateTopics     []string
	generatePlan       string
	generateDryRun     bool
	generateStatus     string
	generateOut        string
	generateDelay      time.Duration
	generateTimeout    time.Duration
	generateRewrites   bool
	generateStaleAfter time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run a generation batch and write Markdown review files",
	Long: `generate drafts one article per assignment, publishes to the CMS unless
--dry-run is set, and writes each draft to a Markdown review file.

Assignments come from --topic flags, a --plan YAML file, or stale CMS posts
with --rewrite-stale. Without CMS credentials the run is forced to dry-run.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := cliLogger()

		cfg, err := config.LoadAppConfig()
		if err != nil {
			logger.Error("failed to load application configuration", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if generateStatus != "" && !validPostStatus(generateStatus) {
			fmt.Fprintf(os.Stderr, "Error: --status must be draft, publish, pending, or private, got %q\n", generateStatus)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, generateTimeout)
		defer cancel()

		fetcher, err := newFetchClient()
		if err != nil {
			logger.Error("failed to create fetch client", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: Failed to create fetch client: %v\n", err)
			os.Exit(1)
		}

		gen := newGenerator(logger, cfg.AI)

		var publisher pipeline.Publisher
		var postLister topicsUC.PostLister
		if cfg.CMS.BaseURL != "" {
			client, err := newCMSClient(fetcher, cmsSettings{
				BaseURL:     cfg.CMS.BaseURL,
				Username:    cfg.CMS.Username,
				AppPassword: cfg.CMS.AppPassword,
				JWTToken:    cfg.CMS.JWTToken,
			})
			if err != nil {
				logger.Error("failed to create cms client", slog.Any("error", err))
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			publisher = client
			postLister = client
		}

		opts := pipeline.Options{
			DryRun: generateDryRun,
			Delay:  generateDelay,
			Status: entity.PostStatus(generateStatus),
		}
		if publisher == nil && !opts.DryRun {
			logger.Warn("no cms configured, forcing dry run")
			fmt.Fprintln(os.Stderr, "No CMS configured; running in dry-run mode.")
			opts.DryRun = true
		}

		assignments := collectAssignments(ctx, logger, cfg, postLister, &opts)
		if len(assignments) == 0 {
			fmt.Fprint(os.Stderr, `Error: Nothing to generate

Usage: contentforge generate --topic "subject" [--dry-run]

Examples:
  contentforge generate --topic "Getting Started With Go" --dry-run
  contentforge generate --plan plan.yaml --status draft
  contentforge generate --rewrite-stale --stale-after 2160h
`)
			os.Exit(1)
		}

		svc := pipeline.NewRunner(gen, publisher, extract.NewExtractor(fetcher), nil)

		fmt.Printf("Generating %d article(s)", len(assignments))
		if opts.DryRun {
			fmt.Printf(" (dry run)")
		}
		fmt.Println("...")

		report, err := svc.Run(ctx, assignments, opts)
		if err != nil {
			logger.Error("generation run failed", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: Generation run failed: %v\n", err)
			os.Exit(1)
		}

		reviewPaths, writeErr := writeReviewFiles(generateOut, report)
		if writeErr != nil {
			logger.Error("failed to write review files", slog.Any("error", writeErr))
		}

		outputReport(report, reviewPaths)

		if writeErr != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to write review files: %v\n", writeErr)
			os.Exit(1)
		}
		if report.Failed > 0 {
			os.Exit(1)
		}
	},
}

// collectAssignments builds the run's work list from the plan file, the
// --topic flags, and stale-post discovery, in that order.
func collectAssignments(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig, postLister topicsUC.PostLister, opts *pipeline.Options) []entity.Assignment {
	var assignments []entity.Assignment

	if generatePlan != "" {
		plan, err := config.LoadPlan(generatePlan)
		if err != nil {
			logger.Error("failed to load content plan", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		assignments = append(assignments, plan.Assignments()...)
		if opts.Status == "" {
			opts.Status = plan.Status()
		}
		logger.Info("content plan loaded",
			slog.String("path", generatePlan),
			slog.Int("topics", len(plan.Topics)))
	}

	for _, title := range generateTopics {
		assignments = append(assignments, entity.NewTopicAssignment(entity.Topic{
			Title:  title,
			Slug:   text.Slugify(title),
			Source: entity.TopicSourcePlan,
		}))
	}

	if generateRewrites {
		if postLister == nil {
			fmt.Fprintln(os.Stderr, "Error: --rewrite-stale requires a CMS connection (set CMS_BASE_URL)")
			os.Exit(1)
		}
		staleAfter := generateStaleAfter
		if staleAfter <= 0 {
			staleAfter = cfg.Discovery.StaleAfter
		}
		discovery := topicsUC.NewDiscovery(nil, postLister, nil)
		stale, err := discovery.FromPosts(ctx, staleAfter)
		if err != nil {
			logger.Error("stale post discovery failed", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: Stale post discovery failed: %v\n", err)
			os.Exit(1)
		}
		assignments = append(assignments, stale...)
	}

	return assignments
}

// newGenerator selects the draft generation provider from the AI config.
func newGenerator(logger *slog.Logger, cfg config.AIConfig) pipeline.Generator {
	switch cfg.Provider {
	case "claude":
		return generator.NewClaudeDrafter(cfg.AnthropicAPIKey)
	case "openai":
		genConfig, err := generator.LoadOpenAISettings()
		if err != nil {
			logger.Error("failed to load OpenAI generator configuration", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return generator.NewOpenAIDrafter(cfg.OpenAIAPIKey, genConfig)
	default:
		logger.Warn("using noop draft generator, drafts will be placeholders")
		return generator.NewPlaceholder()
	}
}

// writeReviewFiles writes every generated draft to a Markdown file under
// outDir, named by date and slug. Returns the written path per item index.
func writeReviewFiles(outDir string, report *pipeline.Report) (map[int]string, error) {
	paths := make(map[int]string)

	date := time.Now().Format("2006-01-02")
	for _, item := range report.Items {
		if item.Draft == nil {
			continue
		}

		if err := os.MkdirAll(outDir, 0750); err != nil {
			return paths, fmt.Errorf("create review directory: %w", err)
		}

		slug := cmp.Or(item.Draft.Slug, text.Slugify(item.Draft.Title), fmt.Sprintf("draft-%d", item.Index+1))
		path := filepath.Join(outDir, fmt.Sprintf("%s-%s.md", date, slug))
		if err := os.WriteFile(path, []byte(reviewFileBody(report, item)), 0600); err != nil {
			return paths, fmt.Errorf("write review file %s: %w", path, err)
		}
		paths[item.Index] = path
	}

	return paths, nil
}

// reviewFileBody renders one draft as Markdown with YAML front matter. The
// HTML body is converted to Markdown; if conversion fails the raw HTML is
// kept so the draft is never lost.
func reviewFileBody(report *pipeline.Report, item pipeline.ItemResult) string {
	body, err := extract.ToMarkdown(item.Draft.ContentHTML)
	if err != nil {
		slog.Warn("markdown conversion failed, keeping raw html",
			slog.String("draft_id", item.Draft.ID), slog.Any("error", err))
		body = item.Draft.ContentHTML
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", item.Draft.Title)
	if item.Draft.Slug != "" {
		fmt.Fprintf(&b, "slug: %s\n", item.Draft.Slug)
	}
	switch {
	case report.DryRun:
		b.WriteString("status: dry-run\n")
	case item.Post != nil:
		fmt.Fprintf(&b, "status: %s\n", item.Post.Status)
		if item.Post.Link != "" {
			fmt.Fprintf(&b, "link: %s\n", item.Post.Link)
		}
	}
	if len(item.Draft.Tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(item.Draft.Tags, ", "))
	}
	if item.Draft.Model != "" {
		fmt.Fprintf(&b, "model: %s\n", item.Draft.Model)
	}
	if !item.Draft.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "generated: %s\n", item.Draft.GeneratedAt.Format(time.RFC3339))
	}
	b.WriteString("---\n\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// outputReport prints the run summary in human-readable format.
func outputReport(report *pipeline.Report, reviewPaths map[int]string) {
	fmt.Printf("\nRun %s finished in %s", report.RunID, report.Duration.Round(time.Second))
	if report.DryRun {
		fmt.Printf(" (dry run)")
	}
	fmt.Println()
	fmt.Printf("Generated: %d  Published: %d  Failed: %d\n\n", report.Generated, report.Published, report.Failed)

	for i, item := range report.Items {
		if item.Success {
			fmt.Printf("%d. [ok] %s\n", i+1, item.Assignment.Label())
		} else {
			fmt.Printf("%d. [failed] %s\n", i+1, item.Assignment.Label())
			if item.Err != nil {
				fmt.Printf("   error: %v\n", item.Err)
			}
		}
		if item.Post != nil && item.Post.Link != "" {
			fmt.Printf("   published: %s\n", item.Post.Link)
		}
		if path, ok := reviewPaths[item.Index]; ok {
			fmt.Printf("   review: %s\n", path)
		}
	}
}

// validPostStatus reports whether s is a post status generate accepts.
func validPostStatus(s string) bool {
	switch entity.PostStatus(s) {
	case entity.PostStatusDraft, entity.PostStatusPublish, entity.PostStatusPending, entity.PostStatusPrivate:
		return true
	default:
		return false
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringArrayVar(&generateTopics, "topic", nil, "Topic title to write about (repeatable)")
	generateCmd.Flags().StringVar(&generatePlan, "plan", "", "Path to a YAML content plan")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Generate drafts without touching the CMS")
	generateCmd.Flags().StringVar(&generateStatus, "status", "", "CMS status for published drafts: draft, publish, pending, or private")
	generateCmd.Flags().StringVar(&generateOut, "out", "drafts", "Directory for Markdown review files")
	generateCmd.Flags().DurationVar(&generateDelay, "delay", 0, "Pacing delay between generations (default: 1s)")
	generateCmd.Flags().DurationVar(&generateTimeout, "timeout", 30*time.Minute, "Overall run timeout")
	generateCmd.Flags().BoolVar(&generateRewrites, "rewrite-stale", false, "Also rewrite stale CMS posts")
	generateCmd.Flags().DurationVar(&generateStaleAfter, "stale-after", 0, "Age after which posts count as stale (default: DISCOVERY_STALE_AFTER)")
}
