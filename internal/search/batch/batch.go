// Package batch runs independent lookups in fixed-size concurrent batches.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultSize is the number of concurrent lookups per batch.
const DefaultSize = 40

// Outcome is the result of one item's lookup.
type Outcome[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// Run calls fn for every item. Items are split into batches of size; the
// calls within a batch run concurrently and batches run one after another,
// so at most size calls are in flight. An error from fn is recorded on that
// item's Outcome and never affects other items. Outcomes are returned in
// item order.
//
// Run returns the context error if ctx is done before all batches finish.
func Run[T, R any](ctx context.Context, items []T, size int, fn func(context.Context, T) (R, error)) ([]Outcome[T, R], error) {
	if size <= 0 {
		size = DefaultSize
	}

	outcomes := make([]Outcome[T, R], len(items))
	for start := 0; start < len(items); start += size {
		if err := ctx.Err(); err != nil {
			return nil, context.Cause(ctx)
		}

		end := min(start+size, len(items))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				value, err := fn(ctx, items[i])
				outcomes[i] = Outcome[T, R]{Item: items[i], Value: value, Err: err}
				return nil
			})
		}
		_ = g.Wait() // per-item errors live on the outcomes
	}

	if err := ctx.Err(); err != nil {
		return nil, context.Cause(ctx)
	}
	return outcomes, nil
}
