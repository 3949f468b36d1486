// Package notifier delivers pipeline run summaries to chat channels.
// Slack and Discord webhooks are supported alongside a no-op notifier for
// installs that run without notifications, all behind the Notifier
// interface so the pipeline never cares which one it talks to.
package notifier

import (
	"context"
	"fmt"
	"time"
)

// RunItem is one assignment outcome inside a run summary.
type RunItem struct {
	// Label identifies the assignment, e.g. "new: go-generics-guide".
	Label string

	// Success reports whether the item settled successfully.
	Success bool

	// PostURL is the permalink of the published post, when one was created.
	PostURL string

	// Err carries the failure reason for unsuccessful items.
	Err string
}

// RunSummary describes one completed pipeline run.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	// DryRun marks runs that generated drafts without publishing.
	DryRun bool

	Generated int
	Published int
	Failed    int

	Items []RunItem
}

// Total returns the number of assignments the run processed.
func (s *RunSummary) Total() int {
	return len(s.Items)
}

// Notifier sends run completion notifications. Implementations own their
// rate limiting and retries; a returned error means the notification is
// lost for good.
type Notifier interface {
	NotifyRun(ctx context.Context, summary *RunSummary) error
}

// Failure detail lines shown before eliding the rest.
const maxFailureLines = 5

const truncationSuffix = "..."

// runHeadline builds the one-line result every channel leads with.
func runHeadline(summary *RunSummary) string {
	if summary.DryRun {
		return fmt.Sprintf("Content dry run complete: %d/%d generated, %d failed",
			summary.Generated, summary.Total(), summary.Failed)
	}
	return fmt.Sprintf("Content run complete: %d/%d published, %d failed",
		summary.Published, summary.Total(), summary.Failed)
}

// failureLines renders up to maxFailureLines failed items.
func failureLines(summary *RunSummary) []string {
	if summary.Failed == 0 {
		return nil
	}

	var lines []string
	for _, item := range summary.Items {
		if item.Success {
			continue
		}
		if len(lines) == maxFailureLines {
			lines = append(lines, fmt.Sprintf("… and %d more", summary.Failed-maxFailureLines))
			break
		}
		lines = append(lines, fmt.Sprintf("• %s — %s", item.Label, item.Err))
	}
	return lines
}

// truncateText caps s at limit bytes, replacing the tail with suffix when
// it overflows.
func truncateText(s string, limit int, suffix string) string {
	if len(s) > limit {
		s = s[:limit-len(suffix)] + suffix
	}
	return s
}
