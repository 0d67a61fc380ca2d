// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWidth is the fan-out used when callers pass a non-positive width.
const DefaultWidth = 5

// Map applies fn to every item with at most width calls in flight and returns
// the results in input order, whatever order the calls finish in.
// fn must not fail; per-item problems belong in R.
// If ctx is cancelled, items not yet started are skipped and keep R's zero value.
func Map[T, R any](ctx context.Context, width int, items []T, fn func(ctx context.Context, item T) R) []R {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if width > len(items) {
		width = len(items)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(width)
	for i := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			out[i] = fn(gctx, items[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Width clamps a configured fan-out to something sensible for this host.
func Width(configured int) int {
	if configured <= 0 {
		return DefaultWidth
	}
	if limit := runtime.NumCPU() * 16; configured > limit {
		return limit
	}
	return configured
}
