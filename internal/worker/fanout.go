package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FanOut runs fn for every item with at most limit running at once and
// returns the results in input order. fn reports failure through its own
// result value; one member failing never cancels its siblings.
func FanOut[T, R any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = fn(ctx, item)
			return nil
		})
	}

	_ = g.Wait()
	return results
}
