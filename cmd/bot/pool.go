package main

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// pool runs jobs that each hold a number of slots for their whole run. An
// album holds as many slots as photos it stylizes in parallel, so the total
// number of outbound generations never exceeds size.
type pool struct {
	size int64
	sem  *semaphore.Weighted
	wg   sync.WaitGroup
}

func newPool(size int) *pool {
	if size < 1 {
		size = 1
	}
	return &pool{size: int64(size), sem: semaphore.NewWeighted(int64(size))}
}

// Go waits for weight slots and runs fn in its own goroutine. If ctx ends
// first, fn is not run and ctx.Err() is returned.
func (p *pool) Go(ctx context.Context, weight int, fn func()) error {
	w := min(max(int64(weight), 1), p.size)
	if err := p.sem.Acquire(ctx, w); err != nil {
		return err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(w)
		fn()
	}()
	return nil
}

func (p *pool) Wait() {
	p.wg.Wait()
}
