package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrWorkerStopped is returned for work submitted after Stop.
var ErrWorkerStopped = errors.New("worker pool stopped")

// job represents a unit of work to be executed on a worker goroutine.
type job struct {
	ctx  context.Context
	fn   func() (any, error)
	done chan jobResult
}

// jobResult holds the return value from a job.
type jobResult struct {
	value any
	err   error
}

// WorkerPool serializes access to each instance through a single
// goroutine. A VM is single-threaded; every handler that touches one must
// go through the pool. Jobs for the same key always land on the same
// worker, so different instances run in parallel while one instance is
// never touched concurrently.
type WorkerPool struct {
	queues []chan job
	quit   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewWorkerPool creates a pool of n workers and starts them.
func NewWorkerPool(n int) *WorkerPool {
	if n <= 0 {
		n = 1
	}
	p := &WorkerPool{
		queues: make([]chan job, n),
		quit:   make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan job, 64)
		p.wg.Add(1)
		go p.loop(p.queues[i])
	}
	return p
}

// loop processes jobs sequentially on a dedicated goroutine.
func (p *WorkerPool) loop(q chan job) {
	defer p.wg.Done()
	for {
		select {
		case j := <-q:
			if err := j.ctx.Err(); err != nil {
				j.done <- jobResult{err: err}
				continue
			}
			j.done <- p.execute(j.fn)
		case <-p.quit:
			return
		}
	}
}

// execute runs a job, recovering from panics.
func (p *WorkerPool) execute(fn func() (any, error)) (result jobResult) {
	defer func() {
		if r := recover(); r != nil {
			result = jobResult{err: fmt.Errorf("worker panic: %v", r)}
		}
	}()
	value, err := fn()
	return jobResult{value: value, err: err}
}

// Do submits fn to the worker owning key and blocks until it completes or
// ctx is done. A job that has already started keeps running after ctx is
// done; its result is discarded.
func (p *WorkerPool) Do(ctx context.Context, key int64, fn func() (any, error)) (any, error) {
	q := p.queues[uint64(key)%uint64(len(p.queues))]
	j := job{ctx: ctx, fn: fn, done: make(chan jobResult, 1)}

	select {
	case q <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.quit:
		return nil, ErrWorkerStopped
	}

	select {
	case r := <-j.done:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.quit:
		return nil, ErrWorkerStopped
	}
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return len(p.queues)
}

// Stop shuts down the workers and waits for them to exit. Jobs still
// queued are abandoned.
func (p *WorkerPool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}
