package grid

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool runs fork-join jobs on a bounded number of goroutines.
type Pool struct {
	workers int
}

// NewPool returns a pool of the given size, or GOMAXPROCS when workers <= 0.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// Run calls fn for every i in [0, n) and waits for all calls to return. The
// first error cancels ctx for the remaining calls and is returned.
func (p *Pool) Run(n int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			return fn(ctx, i)
		})
	}
	return g.Wait()
}
