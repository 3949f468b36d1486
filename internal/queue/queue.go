// Package queue drains an ordered list of work items strictly one at a time,
// pacing consecutive items with a fixed delay. It exists to keep request rates
// against quota-limited AI and CMS APIs predictable: one in-flight operation,
// bounded throughput, failures isolated per item.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultDelay is the conventional pause between consecutive items.
const DefaultDelay = 1 * time.Second

// Result records the settled outcome of one work item. Index correlates the
// result with the input list; the full result slice preserves input order.
type Result[T, R any] struct {
	Item    T
	Value   R
	Err     error
	Index   int
	Success bool
}

// Func processes a single work item.
type Func[T, R any] func(ctx context.Context, item T) (R, error)

// ProgressFunc is invoked synchronously after each item settles, before the
// inter-item delay starts.
type ProgressFunc[T, R any] func(Result[T, R])

// Process runs fn for every item in order, exactly one at a time. Item i+1 is
// never started before item i has settled and the pacing delay has elapsed;
// no delay follows the final item. A failing item is captured in its Result
// and never aborts the queue, so the returned slice always has one entry per
// input item, index-correlated. onProgress may be nil.
//
// Once ctx is done, remaining unstarted items settle immediately as failures
// carrying the context error, preserving the length invariant.
func Process[T, R any](ctx context.Context, items []T, fn Func[T, R], onProgress ProgressFunc[T, R], delay time.Duration) []Result[T, R] {
	results := make([]Result[T, R], 0, len(items))

	for i, item := range items {
		res := Result[T, R]{Item: item, Index: i}

		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("queue aborted: %w", err)
		} else if value, err := fn(ctx, item); err != nil {
			res.Err = err
			slog.Warn("queue item failed",
				slog.Int("index", i),
				slog.Any("error", err))
		} else {
			res.Value = value
			res.Success = true
		}

		results = append(results, res)
		if onProgress != nil {
			onProgress(res)
		}

		// Pace before the next item; never after the last one.
		if i < len(items)-1 && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
		}
	}

	return results
}
