package notifier

import (
	"context"
	"errors"
	"log/slog"
)

// MultiNotifier fans a run summary out to several notifiers. Every target
// gets the summary even when an earlier one fails; the combined error joins
// every individual failure.
type MultiNotifier struct {
	targets []Notifier
}

// NewMultiNotifier creates a notifier that delivers to all given targets in
// order. Nil targets are skipped, so callers can pass conditionally
// constructed notifiers without filtering first.
func NewMultiNotifier(targets ...Notifier) *MultiNotifier {
	kept := make([]Notifier, 0, len(targets))
	for _, target := range targets {
		if target != nil {
			kept = append(kept, target)
		}
	}
	return &MultiNotifier{targets: kept}
}

// Len returns the number of delivery targets.
func (m *MultiNotifier) Len() int {
	return len(m.targets)
}

// NotifyRun implements the Notifier interface. Each target handles its own
// rate limiting and retries; a failed target is logged and does not stop
// delivery to the rest.
func (m *MultiNotifier) NotifyRun(ctx context.Context, summary *RunSummary) error {
	var errs []error
	for _, target := range m.targets {
		if err := target.NotifyRun(ctx, summary); err != nil {
			slog.Warn("notification target failed",
				slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
