package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DiscordConfig configures the Discord webhook notifier. WebhookURL is the
// full webhook URL including its token; Timeout bounds each HTTP request to
// Discord.
type DiscordConfig struct {
	Enabled    bool
	WebhookURL string
	Timeout    time.Duration
}

// DiscordNotifier posts run summaries to a Discord channel as embeds.
type DiscordNotifier struct {
	config DiscordConfig
	sender *webhookSender
}

// NewDiscordNotifier builds a notifier for the given webhook. The rate
// limiter stays well under Discord's 30 requests per minute per webhook.
func NewDiscordNotifier(cfg DiscordConfig) *DiscordNotifier {
	n := &DiscordNotifier{config: cfg}
	n.sender = &webhookSender{
		service:     "discord",
		webhookURL:  cfg.WebhookURL,
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     NewRateLimiter(0.5, 3),
		maxAttempts: 2,
		baseDelay:   5 * time.Second,
	}
	return n
}

// discordMessage is the JSON body posted to the webhook.
type discordMessage struct {
	Embeds []discordEmbed `json:"embeds"`
}

// discordEmbed is one rich message card.
type discordEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Footer      discordFooter `json:"footer"`
	Timestamp   string        `json:"timestamp"`
}

type discordFooter struct {
	Label string `json:"text"`
}

const (
	// Discord embed limits
	discordTitleLimit = 256
	discordDescLimit  = 4096

	// 緑(#2ECC71)と赤(#E74C3C)
	discordGreenColor = 3066993
	discordRedColor   = 15158332
)

// embedPayload renders a summary as a single embed: headline title, counts
// and failure details in the description, green when everything published
// and red otherwise, with run ID and duration in the footer.
func (d *DiscordNotifier) embedPayload(summary *RunSummary) discordMessage {
	var desc strings.Builder
	fmt.Fprintf(&desc, "Generated: %d\nPublished: %d\nFailed: %d", summary.Generated, summary.Published, summary.Failed)
	for _, line := range failureLines(summary) {
		fmt.Fprintf(&desc, "\n%s", line)
	}

	color := discordGreenColor
	if summary.Failed > 0 {
		color = discordRedColor
	}

	e := discordEmbed{
		Title:       truncateText(runHeadline(summary), discordTitleLimit, ""),
		Description: truncateText(desc.String(), discordDescLimit, truncationSuffix),
		Color:       color,
		Timestamp:   summary.StartedAt.Format(time.RFC3339),
	}
	e.Footer.Label = fmt.Sprintf("run %s • %s", summary.RunID, summary.Duration.Round(time.Second))

	return discordMessage{Embeds: []discordEmbed{e}}
}

// NotifyRun implements the Notifier interface.
func (d *DiscordNotifier) NotifyRun(ctx context.Context, summary *RunSummary) error {
	return d.sender.deliver(ctx, summary, d.embedPayload(summary))
}
