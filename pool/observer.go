package pool

import "time"

// Observer receives pool events for instrumentation. Methods are called
// without the pool lock held, from submitting goroutines and from workers,
// so implementations must be safe for concurrent use. A panic in a worker-side
// method is recovered and logged; a panic in TaskSubmitted or TaskRejected
// reaches the submitting goroutine.
type Observer interface {
	// TaskSubmitted is called after a task was queued.
	TaskSubmitted(queueDepth int)
	// TaskRejected is called when Submit fails because the pool is stopping.
	TaskRejected()
	// TaskStarted is called when a worker dequeued a task.
	TaskStarted(queueDepth int)
	// TaskFinished is called after the task's outcome was delivered.
	TaskFinished(elapsed time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) TaskSubmitted(int) {}

func (noopObserver) TaskRejected() {}

func (noopObserver) TaskStarted(int) {}

func (noopObserver) TaskFinished(time.Duration, error) {}
