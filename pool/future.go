package pool

import (
	"context"

	"github.com/utkarsh5026/taskpool/internal/types"
)

// Future is the caller's handle on one submitted task.
//
// Every method is safe to call from any goroutine, any number of times. Once
// the task has finished, all reads return the same cached outcome.
type Future[T any] struct {
	id int64
	rc *types.ResultChannel[T]
}

// ID returns the task's submission number. Ids start at 1 and follow
// submission order within a pool.
func (f *Future[T]) ID() int64 {
	return f.id
}

// Wait blocks until the task has finished and returns its value, or the error
// the task returned. A panic inside the task is returned as *PanicError.
func (f *Future[T]) Wait() (T, error) {
	return f.rc.Outcome()
}

// WaitContext is like Wait but returns ctx.Err() if ctx ends first.
// The task itself is not cancelled and a later Wait still sees its outcome.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
//	defer cancel()
//	value, err := future.WaitContext(ctx)
func (f *Future[T]) WaitContext(ctx context.Context) (T, error) {
	return f.rc.OutcomeContext(ctx)
}

// TryGet returns the outcome if the task has finished. ready is false, and
// value and err are zero, while it is still queued or running.
func (f *Future[T]) TryGet() (value T, err error, ready bool) {
	return f.rc.TryOutcome()
}

// IsReady reports whether the task has finished. It never blocks.
func (f *Future[T]) IsReady() bool {
	return f.rc.Ready()
}

// Done returns a channel that is closed when the task has finished, for use
// in select statements.
func (f *Future[T]) Done() <-chan struct{} {
	return f.rc.Done()
}
