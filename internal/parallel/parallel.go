// Package parallel runs independent resource jobs on a bounded set of workers.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Maximum concurrent jobs.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
	}
}

// WithWorkers returns a config limited to n workers. n <= 0 keeps the CPU default and
// n == 1 runs sequentially.
func WithWorkers(n int) Config {
	cfg := DefaultConfig()
	if n > 0 {
		cfg.NumWorkers = n
		cfg.Enabled = n > 1
	}
	return cfg
}

// For executes fn(ctx, i) for i in [0, n). The first error cancels ctx for the remaining
// jobs and is returned once every started job has finished.
func For(ctx context.Context, n int, fn func(ctx context.Context, i int) error, cfg Config) error {
	if !cfg.Enabled || n < 2 {
		// Sequential fallback.
		for i := range n {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(cfg.NumWorkers, 1))
	for i := range n {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			return fn(egCtx, i)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Map applies fn to every item and returns the results in input order.
func Map[T, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error), cfg Config) ([]R, error) {
	out := make([]R, len(items))
	err := For(ctx, len(items), func(ctx context.Context, i int) error {
		r, err := fn(ctx, items[i])
		if err != nil {
			return err
		}
		out[i] = r
		return nil
	}, cfg)
	if err != nil {
		return nil, err
	}
	return out, nil
}
