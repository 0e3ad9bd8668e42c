// Package completion provides a one-shot result handle shared between a
// producer and any number of waiters.
package completion

import (
	"context"
	"sync"
)

// Handle carries the eventual result of an asynchronous operation.
// The first Resolve or Fail wins; later calls are no-ops. A failed
// operation that is still a valid outcome (for example "initialization
// completed unsuccessfully") should Resolve with that outcome rather
// than Fail; Fail is for the operation itself not producing a result.
type Handle[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// New returns an unresolved handle.
func New[T any]() *Handle[T] {
	return &Handle[T]{done: make(chan struct{})}
}

// Resolved returns a handle already carrying v.
func Resolved[T any](v T) *Handle[T] {
	h := New[T]()
	h.Resolve(v)
	return h
}

// Failed returns a handle already carrying err.
func Failed[T any](err error) *Handle[T] {
	h := New[T]()
	h.Fail(err)
	return h
}

// Resolve completes the handle with v and reports whether this call won.
func (h *Handle[T]) Resolve(v T) bool {
	won := false
	h.once.Do(func() {
		h.val = v
		close(h.done)
		won = true
	})
	return won
}

// Fail completes the handle with err and reports whether this call won.
func (h *Handle[T]) Fail(err error) bool {
	won := false
	h.once.Do(func() {
		h.err = err
		close(h.done)
		won = true
	})
	return won
}

// Done is closed once the handle carries a result.
func (h *Handle[T]) Done() <-chan struct{} { return h.done }

// Settled reports whether the handle carries a result yet.
func (h *Handle[T]) Settled() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Await blocks until the handle settles or ctx expires. A ctx error does
// not consume the handle; callers may await again with a fresh context.
func (h *Handle[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.val, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the settled value and error. Valid only after Done is
// closed; before that it returns zero values.
func (h *Handle[T]) Result() (T, error) {
	select {
	case <-h.done:
		return h.val, h.err
	default:
		var zero T
		return zero, nil
	}
}
