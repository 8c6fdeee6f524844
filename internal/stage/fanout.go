package stage

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Outcome pairs one fan-out item's result with its error, if any.
type Outcome[R any] struct {
	Value R
	Err   error
}

// FanOut runs fn over every item with at most limit in flight and a per-item
// deadline. Outcomes keep input order, so callers can sort deterministically
// regardless of completion order. A cancelled parent context stops new items
// from launching; items already in flight observe it through their own
// derived context.
func FanOut[T, R any](ctx context.Context, limit int, timeout time.Duration, items []T, fn func(context.Context, T) (R, error)) []Outcome[R] {
	if limit < 1 {
		limit = 1
	}
	outcomes := make([]Outcome[R], len(items))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, item := range items {
		if groupCtx.Err() != nil {
			outcomes[i].Err = groupCtx.Err()
			continue
		}
		i, item := i, item
		group.Go(func() error {
			itemCtx := groupCtx
			if timeout > 0 {
				var cancel context.CancelFunc
				itemCtx, cancel = context.WithTimeout(groupCtx, timeout)
				defer cancel()
			}
			value, err := fn(itemCtx, item)
			outcomes[i] = Outcome[R]{Value: value, Err: err}
			return nil // per-item failures are recorded, not fatal
		})
	}
	_ = group.Wait()
	return outcomes
}
