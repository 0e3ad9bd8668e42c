// Package pool runs submitted closures on a fixed set of workers fed by
// one bounded queue, decoupling callers from execution.
package pool

import (
	"context"
	"fmt"
	"sync"

	"inferd/pkg/completion"
)

const (
	defaultWorkers    = 4
	defaultQueueDepth = 32
)

// Config sizes the pool. Zero values take the defaults.
type Config struct {
	// Workers is the number of goroutines draining the queue.
	Workers int
	// QueueDepth is the number of tasks that may wait before submissions
	// are rejected as too busy.
	QueueDepth int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = defaultQueueDepth
	}
	return c
}

// Pool executes tasks on a fixed set of workers. The closed flag and the
// task channel are guarded by one lock so no submission can race Shutdown
// into a send on a closed channel.
type Pool struct {
	cfg   Config
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts the workers immediately.
func New(cfg Config) *Pool {
	cfg = cfg.withDefaults()
	p := &Pool{cfg: cfg, tasks: make(chan func(), cfg.QueueDepth)}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit hands fn to the pool and returns its handle immediately, never
// blocking the caller. The handle fails with a pool-closed error after
// Shutdown and a too-busy error when the queue is full; otherwise a worker
// eventually runs fn and settles the handle with its value or error. A
// panicking fn fails its own handle and leaves the worker serving.
func Submit[T any](p *Pool, fn func() (T, error)) *completion.Handle[T] {
	h := completion.New[T]()
	task := func() {
		defer func() {
			if rec := recover(); rec != nil {
				h.Fail(fmt.Errorf("task panic: %v", rec))
			}
		}()
		v, err := fn()
		if err != nil {
			h.Fail(err)
			return
		}
		h.Resolve(v)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		h.Fail(poolClosedError{})
		return h
	}
	select {
	case p.tasks <- task:
	default:
		h.Fail(tooBusyError{})
	}
	return h
}

// Shutdown stops intake and closes the queue. Tasks already queued still
// run to completion. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.tasks)
}

// Drain blocks until every worker has exited or ctx expires. Meaningful
// only after Shutdown; before that workers never exit.
func (p *Pool) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of queued tasks not yet picked up by a worker.
func (p *Pool) Len() int { return len(p.tasks) }

// Cap returns the queue capacity.
func (p *Pool) Cap() int { return cap(p.tasks) }

// Workers returns the configured worker count.
func (p *Pool) Workers() int { return p.cfg.Workers }

// Closed reports whether Shutdown has run.
func (p *Pool) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}
