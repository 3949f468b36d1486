package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SlackConfig configures the Slack Incoming Webhook notifier. WebhookURL is
// the Incoming Webhook URL including its token; Timeout bounds each HTTP
// request to Slack.
type SlackConfig struct {
	Enabled    bool
	WebhookURL string
	Timeout    time.Duration
}

// SlackNotifier posts run summaries to a Slack channel via Block Kit.
type SlackNotifier struct {
	config SlackConfig
	sender *webhookSender
}

// NewSlackNotifier builds a notifier for the given webhook. Incoming
// Webhooks are limited to one message per second, and the limiter enforces
// exactly that.
func NewSlackNotifier(cfg SlackConfig) *SlackNotifier {
	n := &SlackNotifier{config: cfg}
	n.sender = &webhookSender{
		service:     "slack",
		webhookURL:  cfg.WebhookURL,
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     NewRateLimiter(1.0, 1),
		maxAttempts: 2,
		baseDelay:   5 * time.Second,
	}
	return n
}

// slackMessage is the JSON body posted to the webhook. Fallback is the plain
// text shown in desktop notifications, Blocks the rich layout.
type slackMessage struct {
	Fallback string       `json:"text"`
	Blocks   []slackBlock `json:"blocks"`
}

// slackBlock is one Block Kit block, either a "section" with text or a
// "context" with elements.
type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"` // mrkdwnかplain_text
	Body string `json:"text"`
}

// Block Kit limits
const (
	slackSectionLimit  = 3000
	slackFallbackLimit = 150
)

// blockKitPayload renders a summary as a section block carrying the
// headline, counts and failure details, followed by a context block with
// run ID, duration and start time.
func (s *SlackNotifier) blockKitPayload(summary *RunSummary) slackMessage {
	headline := runHeadline(summary)

	var section strings.Builder
	fmt.Fprintf(&section, "*%s*\n", headline)
	fmt.Fprintf(&section, "\n• Generated: %d", summary.Generated)
	fmt.Fprintf(&section, "\n• Published: %d", summary.Published)
	fmt.Fprintf(&section, "\n• Failed: %d", summary.Failed)
	for _, line := range failureLines(summary) {
		fmt.Fprintf(&section, "\n%s", line)
	}

	body := slackText{Type: "mrkdwn", Body: truncateText(section.String(), slackSectionLimit, truncationSuffix)}
	meta := slackText{Type: "mrkdwn", Body: fmt.Sprintf("run %s • %s • started %s",
		summary.RunID, summary.Duration.Round(time.Second), summary.StartedAt.Format(time.RFC3339))}

	payload := slackMessage{Fallback: truncateText(headline, slackFallbackLimit, truncationSuffix)}
	payload.Blocks = []slackBlock{
		{Type: "section", Text: &body},
		{Type: "context", Elements: []slackText{meta}},
	}
	return payload
}

// NotifyRun implements the Notifier interface.
func (s *SlackNotifier) NotifyRun(ctx context.Context, summary *RunSummary) error {
	return s.sender.deliver(ctx, summary, s.blockKitPayload(summary))
}
