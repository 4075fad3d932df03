package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolStopped is returned by Submit once shutdown has begun.
	// Nothing is enqueued; the caller may retry elsewhere or drop the work.
	ErrPoolStopped = errors.New("pool is shutting down")

	// ErrNilTask is returned when Submit is called with a nil function.
	ErrNilTask = errors.New("pool: nil task submitted")

	// ErrConstruction wraps the cause when New cannot start every worker.
	ErrConstruction = errors.New("pool: failed to start workers")

	// ErrShutdownTimeout is returned by Shutdown when workers are still
	// draining after the timeout. They keep running; Close joins them.
	ErrShutdownTimeout = errors.New("error in shutting down: timeout reached")
)

// PanicError is the failure stored for a task whose function panicked.
// The panic never reaches the worker; it is delivered to the task's Future.
type PanicError struct {
	// Value is what the task passed to panic.
	Value any
	// Stack is the stack of the panicking goroutine.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panic: %v\nstack trace:\n%s", e.Value, e.Stack)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
