package notifier

import "context"

// NoOpNotifier drops every notification. Wiring it in when webhooks are
// disabled keeps callers free of nil checks.
type NoOpNotifier struct{}

func NewNoOpNotifier() *NoOpNotifier { return &NoOpNotifier{} }

// NotifyRun discards the summary and reports success.
func (*NoOpNotifier) NotifyRun(context.Context, *RunSummary) error { return nil }
