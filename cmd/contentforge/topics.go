package main

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"contentforge/internal/domain/entity"
	"contentforge/internal/infra/feeds"
	"contentforge/internal/sitemap"
	topicsUC "contentforge/internal/usecase/topics"
	pkgconfig "contentforge/pkg/config"
)

var (
	topicsSitemap    string
	topicsFeeds      []string
	topicsPosts      bool
	topicsStaleAfter time.Duration
	topicsOutput     string
)

// TopicOutput represents one discovered topic in JSON output.
type TopicOutput struct {
	Title     string `json:"title"`
	Slug      string `json:"slug,omitempty"`
	Source    string `json:"source"`
	SourceURL string `json:"source_url,omitempty"`
}

// RewriteOutput represents one stale-post rewrite candidate in JSON output.
type RewriteOutput struct {
	PostID   int64  `json:"post_id"`
	Title    string `json:"title"`
	Link     string `json:"link,omitempty"`
	Modified string `json:"modified,omitempty"`
}

// TopicsOutput represents the JSON output format for topic discovery.
type TopicsOutput struct {
	Topics   []TopicOutput   `json:"topics"`
	Rewrites []RewriteOutput `json:"rewrites,omitempty"`
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Discover candidate topics from a sitemap, feeds, or existing posts",
	Long: `topics lists what the pipeline could write about: fresh topics mined from
a sitemap or RSS/Atom feeds, and existing CMS posts stale enough to be
rewritten. Sources default to the DISCOVERY_* environment variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := cliLogger()

		sitemapURL := cmp.Or(topicsSitemap, pkgconfig.EnvString("DISCOVERY_SITEMAP_URL", ""))
		feedURLs := topicsFeeds
		if len(feedURLs) == 0 {
			feedURLs = pkgconfig.EnvStringList("DISCOVERY_FEED_URLS", nil)
		}
		staleAfter := topicsStaleAfter
		if staleAfter <= 0 {
			staleAfter = pkgconfig.EnvDuration("DISCOVERY_STALE_AFTER", 90*24*time.Hour)
		}

		if sitemapURL == "" && len(feedURLs) == 0 && !topicsPosts {
			fmt.Fprint(os.Stderr, `Error: No discovery source selected

Usage: contentforge topics [--sitemap URL] [--feeds URL,URL] [--posts]

Examples:
  contentforge topics --sitemap https://blog.example.com/sitemap.xml
  contentforge topics --feeds https://news.example.com/rss --output json
  contentforge topics --posts --stale-after 1440h
`)
			os.Exit(1)
		}

		fetcher, err := newFetchClient()
		if err != nil {
			logger.Error("failed to create fetch client", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: Failed to create fetch client: %v\n", err)
			os.Exit(1)
		}

		var postLister topicsUC.PostLister
		if topicsPosts {
			settings := resolveCMSSettings("", "", "", "")
			if settings.BaseURL == "" {
				fmt.Fprintln(os.Stderr, "Error: --posts requires a CMS connection (set CMS_BASE_URL)")
				os.Exit(1)
			}
			client, err := newCMSClient(fetcher, settings)
			if err != nil {
				logger.Error("failed to create cms client", slog.Any("error", err))
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			postLister = client
		}

		svc := topicsUC.NewDiscovery(sitemap.NewResolver(fetcher, 0), postLister, feeds.NewFeedFetcher(fetcher))

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		var groups [][]entity.Topic
		if sitemapURL != "" {
			found, err := svc.FromSitemap(ctx, sitemapURL)
			if err != nil {
				logger.Error("sitemap discovery failed", slog.Any("error", err))
				fmt.Fprintf(os.Stderr, "Error: Sitemap discovery failed: %v\n", err)
				os.Exit(1)
			}
			groups = append(groups, found)
		}
		if len(feedURLs) > 0 {
			found, err := svc.FromFeeds(ctx, feedURLs)
			if err != nil {
				logger.Error("feed discovery failed", slog.Any("error", err))
				fmt.Fprintf(os.Stderr, "Error: Feed discovery failed: %v\n", err)
				os.Exit(1)
			}
			groups = append(groups, found)
		}
		merged := topicsUC.Merge(groups...)

		var rewrites []entity.Assignment
		if topicsPosts {
			rewrites, err = svc.FromPosts(ctx, staleAfter)
			if err != nil {
				logger.Error("stale post discovery failed", slog.Any("error", err))
				fmt.Fprintf(os.Stderr, "Error: Stale post discovery failed: %v\n", err)
				os.Exit(1)
			}
		}

		if topicsOutput == "json" {
			outputTopicsJSON(merged, rewrites)
		} else {
			outputTopicsText(merged, rewrites)
		}
	},
}

// outputTopicsText prints discovery results in human-readable format.
func outputTopicsText(topics []entity.Topic, rewrites []entity.Assignment) {
	fmt.Printf("Topics (%d):\n", len(topics))
	for i, topic := range topics {
		fmt.Printf("%d. %s [%s]\n", i+1, topic.Title, topic.Source)
		if topic.Slug != "" {
			fmt.Printf("   slug: %s\n", topic.Slug)
		}
		if topic.SourceURL != "" {
			fmt.Printf("   from: %s\n", topic.SourceURL)
		}
	}

	if len(rewrites) > 0 {
		fmt.Printf("\nRewrite candidates (%d):\n", len(rewrites))
		for i, assignment := range rewrites {
			post := assignment.Post
			fmt.Printf("%d. %s (#%d)\n", i+1, post.Title, post.ID)
			if !post.Modified.IsZero() {
				fmt.Printf("   last modified: %s\n", post.Modified.Format("2006-01-02"))
			}
		}
	}
}

// outputTopicsJSON prints discovery results in JSON format.
func outputTopicsJSON(topics []entity.Topic, rewrites []entity.Assignment) {
	output := TopicsOutput{
		Topics: make([]TopicOutput, len(topics)),
	}
	for i, topic := range topics {
		output.Topics[i] = TopicOutput{
			Title:     topic.Title,
			Slug:      topic.Slug,
			Source:    string(topic.Source),
			SourceURL: topic.SourceURL,
		}
	}
	for _, assignment := range rewrites {
		post := assignment.Post
		rewrite := RewriteOutput{
			PostID: post.ID,
			Title:  post.Title,
			Link:   post.Link,
		}
		if !post.Modified.IsZero() {
			rewrite.Modified = post.Modified.Format(time.RFC3339)
		}
		output.Rewrites = append(output.Rewrites, rewrite)
	}
	printJSON(output)
}

func init() {
	rootCmd.AddCommand(topicsCmd)
	topicsCmd.Flags().StringVar(&topicsSitemap, "sitemap", "", "Sitemap URL to mine (default: DISCOVERY_SITEMAP_URL)")
	topicsCmd.Flags().StringSliceVar(&topicsFeeds, "feeds", nil, "Feed URLs to mine (default: DISCOVERY_FEED_URLS)")
	topicsCmd.Flags().BoolVar(&topicsPosts, "posts", false, "List stale CMS posts as rewrite candidates")
	topicsCmd.Flags().DurationVar(&topicsStaleAfter, "stale-after", 0, "Age after which posts count as stale (default: DISCOVERY_STALE_AFTER or 2160h)")
	topicsCmd.Flags().StringVar(&topicsOutput, "output", "text", "Output format: text or json")
}
