package aws

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// collectEach calls fn for every item with at most limit calls in flight and
// returns the results in input order. fn reports per-item failures through
// its result, so one item never cancels the rest.
func collectEach[T, R any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			results[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
