package pipeline

import (
	"time"

	"contentforge/internal/domain/entity"
	"contentforge/internal/infra/notifier"
	"contentforge/internal/queue"
)

// ItemResult is the settled outcome of one assignment. Index correlates it
// with the input assignment list.
type ItemResult struct {
	Assignment entity.Assignment

	// Draft is set when generation succeeded and the item settled
	// successfully; Post additionally when the draft was published.
	Draft *entity.Draft
	Post  *entity.Post

	Err     error
	Index   int
	Success bool
}

// Report describes one completed pipeline run.
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	DryRun    bool

	// Generated counts drafts the AI produced, including ones whose
	// publish later failed. Published counts successful CMS writes.
	Generated int
	Published int
	Failed    int

	Items []ItemResult
}

// Total returns the number of assignments the run processed.
func (r *Report) Total() int {
	return len(r.Items)
}

// Status classifies the run for metrics: "success", "partial", or "failure".
func (r *Report) Status() string {
	switch {
	case r.Failed == 0:
		return "success"
	case r.Failed == r.Total():
		return "failure"
	default:
		return "partial"
	}
}

// Summary converts the report into the shape notifiers send out.
func (r *Report) Summary() *notifier.RunSummary {
	items := make([]notifier.RunItem, 0, len(r.Items))
	for _, item := range r.Items {
		runItem := notifier.RunItem{
			Label:   item.Assignment.Label(),
			Success: item.Success,
		}
		if item.Post != nil {
			runItem.PostURL = item.Post.Link
		}
		if item.Err != nil {
			runItem.Err = item.Err.Error()
		}
		items = append(items, runItem)
	}

	return &notifier.RunSummary{
		RunID:     r.RunID,
		StartedAt: r.StartedAt,
		Duration:  r.Duration,
		DryRun:    r.DryRun,
		Generated: r.Generated,
		Published: r.Published,
		Failed:    r.Failed,
		Items:     items,
	}
}

// buildReport folds queue results into a run report.
func buildReport(runID string, start time.Time, dryRun bool, generated int, results []queue.Result[entity.Assignment, *outcome]) *Report {
	report := &Report{
		RunID:     runID,
		StartedAt: start,
		Duration:  time.Since(start),
		DryRun:    dryRun,
		Generated: generated,
		Items:     make([]ItemResult, 0, len(results)),
	}

	for _, res := range results {
		item := ItemResult{
			Assignment: res.Item,
			Err:        res.Err,
			Index:      res.Index,
			Success:    res.Success,
		}
		if res.Value != nil {
			item.Draft = res.Value.draft
			item.Post = res.Value.post
		}

		if res.Success {
			if !dryRun {
				report.Published++
			}
		} else {
			report.Failed++
		}
		report.Items = append(report.Items, item)
	}

	return report
}
