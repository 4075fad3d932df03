// Package types holds the values that travel between the pool's producers and
// its workers: the type-erased Task and the ResultChannel that carries one
// task's outcome back to whoever waits on it.
package types

import (
	"context"
	"sync"
)

// ResultChannel is a single-producer, multi-reader handoff for one outcome.
//
// Exactly one of Write or WriteFailure is called, once, by the worker that ran
// the task. Any number of goroutines may read the outcome afterwards; every
// read observes the same value and error.
type ResultChannel[T any] struct {
	value T
	err   error

	mu      sync.Mutex
	written bool
	done    chan struct{}
}

// NewResultChannel creates an empty ResultChannel.
func NewResultChannel[T any]() *ResultChannel[T] {
	return &ResultChannel[T]{done: make(chan struct{})}
}

// Write stores a successful value and wakes every waiter.
func (rc *ResultChannel[T]) Write(v T) {
	rc.resolve(v, nil)
}

// WriteFailure stores err as the task's outcome and wakes every waiter.
// err must be non-nil.
func (rc *ResultChannel[T]) WriteFailure(err error) {
	if err == nil {
		panic("types: WriteFailure called with nil error")
	}
	var zero T
	rc.resolve(zero, err)
}

// resolve publishes the outcome. The close of done orders the stores to
// value and err before any read that observed done closed.
func (rc *ResultChannel[T]) resolve(v T, err error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.written {
		panic("types: ResultChannel written twice")
	}
	rc.written = true
	rc.value, rc.err = v, err
	close(rc.done)
}

// Done returns a channel that is closed once the outcome is available.
func (rc *ResultChannel[T]) Done() <-chan struct{} {
	return rc.done
}

// Ready reports whether the outcome is available. It never blocks.
func (rc *ResultChannel[T]) Ready() bool {
	select {
	case <-rc.done:
		return true
	default:
		return false
	}
}

// Outcome blocks until the outcome is written and returns it.
func (rc *ResultChannel[T]) Outcome() (T, error) {
	<-rc.done
	return rc.value, rc.err
}

// OutcomeContext is like Outcome but gives up when ctx ends first.
func (rc *ResultChannel[T]) OutcomeContext(ctx context.Context) (T, error) {
	select {
	case <-rc.done:
		return rc.value, rc.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryOutcome returns the outcome without blocking. ok is false while the
// task has not finished.
func (rc *ResultChannel[T]) TryOutcome() (value T, err error, ok bool) {
	if !rc.Ready() {
		return value, nil, false
	}
	return rc.value, rc.err, true
}
