// Package pool bounds how many CPU-heavy pipelines run at once.
package pool

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// New returns a pool of size slots; size <= 0 means runtime.NumCPU().
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

func (p *Pool) Size() int {
	return p.size
}

// Do waits for a free slot and runs fn in the calling goroutine. Waiting is
// abandoned when ctx is done; fn itself is expected to watch ctx.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
