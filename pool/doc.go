// Package pool provides a fixed-size worker pool that runs submitted
// functions on background goroutines and hands back a Future for each one.
//
// The pool owns a set of workers created once by New and never resized, a
// FIFO queue of pending tasks, and a stopping flag. The queue and the flag
// are guarded by a single mutex that a condition variable is bound to:
// Submit pushes under the lock and wakes one idle worker, workers pop under
// the lock and run the task after releasing it.
//
// # Basic Usage
//
//	p, err := pool.New(4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	future, err := pool.Submit(p, func() (int, error) {
//	    return 21 * 2, nil
//	})
//	if err != nil {
//	    log.Fatal(err) // pool.ErrPoolStopped after Close
//	}
//
//	value, err := future.Wait()
//
// Submit is a package-level function because Go methods cannot declare type
// parameters. SubmitWith binds one argument, and Pool.Go submits work that
// only reports an error.
//
// # Futures
//
// A Future is written exactly once, by the worker that ran its task, and can
// be read any number of times from any goroutine:
//
//   - Wait: block until the outcome is available
//   - WaitContext: block, but give up when a context ends
//   - TryGet / IsReady: check without blocking
//   - Done: a channel closed on completion, for select
//
// An error returned by the task is delivered unchanged, so errors.Is and
// errors.As work on the caller's side. A panic inside the task is recovered
// and delivered as *PanicError; the worker keeps running.
//
// # Shutdown
//
// Close stops accepting new work immediately (Submit returns
// ErrPoolStopped), lets the workers drain every task that was already queued,
// and waits for every worker to exit. A task that is running when Close is
// called always runs to completion. Shutdown does the same with a deadline
// and returns ErrShutdownTimeout if the workers are still busy.
//
// Never call Close from inside a task: the worker running it would wait for
// itself. From task code use Shutdown with a timeout.
//
// There is no cancellation of tasks that have started. Callers that need a
// bound on how long they wait use WaitContext.
//
// # Ordering
//
// Tasks are dequeued in the order they were submitted, across all
// submitting goroutines. Completion order is not guaranteed: two tasks picked
// up by different workers may finish in either order.
//
// # Configuration Options
//
//   - WithLogger(l): zap logger for worker lifecycle and task failures
//   - WithRetryPolicy(maxAttempts, initialDelay): retry failing tasks
//   - WithBackoff(kind, maxDelay, jitter): retry delay algorithm
//   - WithRateLimit(tasksPerSecond, burst): throttle task starts
//   - WithLockOSThread(): one dedicated OS thread per worker
//   - WithCPUAffinity(): dedicated thread pinned to a CPU
//   - WithBeforeTaskStart, WithOnTaskEnd, WithOnRetry: hooks
//   - WithObserver(o): instrumentation, see package metrics
package pool
