// Package concurrency provides the bounded, order-preserving fan-out
// primitive the pack-generation pipeline needs: results must come back
// in submission order (P4 depends on it) even though work runs with
// several in flight at once.
package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// OrderedMap runs fn over items with at most window calls in flight,
// returning results in the same order as items. The first error cancels
// ctx and is returned once all in-flight calls have observed the
// cancellation; unlike an unordered worker pool, the result slice is
// pre-sized and indexed by submission order so no reordering occurs.
//
// Generalized from the ad hoc goroutine-plus-error-channel pattern the
// teacher repeats inline at each upload/hash call site.
func OrderedMap[T, R any](ctx context.Context, items []T, window int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if window <= 0 {
		window = 1
	}
	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(window)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// OrderedFlatMap is OrderedMap followed by a flatten, for the common case
// of fanning out over items where each produces a slice of results that
// must be concatenated preserving both across-item and within-item
// order.
func OrderedFlatMap[T, R any](ctx context.Context, items []T, window int, fn func(context.Context, T) ([]R, error)) ([]R, error) {
	nested, err := OrderedMap(ctx, items, window, fn)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range nested {
		total += len(n)
	}
	flat := make([]R, 0, total)
	for _, n := range nested {
		flat = append(flat, n...)
	}
	return flat, nil
}
