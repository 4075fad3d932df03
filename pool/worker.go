package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/utkarsh5026/taskpool/internal/backoff"
	"github.com/utkarsh5026/taskpool/internal/types"
	"go.uber.org/zap"
)

// worker runs setup, reports the result on started, then loops: wait for a
// task, run it outside the lock, repeat. It returns once the pool is stopping
// and the queue is empty.
func (p *Pool) worker(id int, started chan<- error) error {
	release, err := p.cfg.workerSetup(id)
	if err != nil {
		err = fmt.Errorf("worker %d: %w", id, err)
		started <- err
		return err
	}
	started <- nil
	defer release()

	p.log.Debug("worker started", zap.Int("worker", id))
	defer p.log.Debug("worker stopped", zap.Int("worker", id))

	for {
		t, depth, ok := p.next()
		if !ok {
			return nil
		}
		p.execute(id, t, depth)
	}
}

// next blocks until a task is available or the pool has stopped with an
// empty queue. Both predicates are re-checked after every wake, so spurious
// and stolen wakeups just send the worker back to Wait.
func (p *Pool) next() (t *types.Task, depth int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.tasks.Empty() && !p.stopping {
		p.cond.Wait()
	}

	if p.tasks.Empty() {
		return nil, 0, false
	}

	t = p.tasks.Pop()
	return t, p.tasks.Len(), true
}

// execute runs one dequeued task with rate limiting, hooks and observation.
// The task writes its own outcome to its ResultChannel.
func (p *Pool) execute(workerID int, t *types.Task, depth int) {
	if t.Consumed() {
		panic(fmt.Sprintf("pool: task %d dequeued after it already ran", t.ID))
	}

	if p.cfg.rateLimiter != nil {
		// The limiter only fails for a cancelled context or n > burst,
		// neither of which can happen here.
		_ = p.cfg.rateLimiter.Wait(context.Background())
	}

	if p.cfg.beforeTaskStart != nil {
		p.guard("before task start hook", t.ID, func() { p.cfg.beforeTaskStart(t.ID) })
	}
	p.guard("observer", t.ID, func() { p.cfg.observer.TaskStarted(depth) })

	start := time.Now()
	err := t.Run()
	elapsed := time.Since(start)

	p.guard("observer", t.ID, func() { p.cfg.observer.TaskFinished(elapsed, err) })
	if p.cfg.onTaskEnd != nil {
		p.guard("task end hook", t.ID, func() { p.cfg.onTaskEnd(t.ID, err) })
	}

	if err == nil {
		return
	}

	var pe *PanicError
	if errors.As(err, &pe) {
		p.log.Warn("task panicked",
			zap.Int64("task_id", t.ID),
			zap.Int("worker", workerID),
			zap.Any("panic", pe.Value),
		)
		return
	}
	p.log.Debug("task failed",
		zap.Int64("task_id", t.ID),
		zap.Int("worker", workerID),
		zap.Duration("elapsed", elapsed),
		zap.Error(err),
	)
}

// guard runs a user callback on the worker, logging a panic instead of
// letting it kill the worker or leave the task's Future unresolved.
func (p *Pool) guard(what string, taskID int64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("callback panicked",
				zap.String("callback", what),
				zap.Int64("task_id", taskID),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	fn()
}

// invoke calls fn, retrying per the configured policy. Panics are recovered
// into *PanicError and are not retried.
func invoke[T any](cfg *config, taskID int64, fn func() (T, error)) (T, error) {
	attempts := max(cfg.maxAttempts, 1)

	var (
		result T
		err    error
		delays backoff.Strategy
	)

	for attempt := range attempts {
		if attempt > 0 {
			if delays == nil {
				delays = cfg.newBackoff()
			}
			if d := delays.NextDelay(attempt - 1); d > 0 {
				time.Sleep(d)
			}
		}

		result, err = callWithRecovery(fn)
		if err == nil {
			return result, nil
		}

		var pe *PanicError
		if errors.As(err, &pe) {
			return result, err
		}

		if cfg.onRetry != nil && attempt < attempts-1 {
			cfg.onRetry(taskID, attempt+1, err)
		}
	}

	return result, err
}

// callWithRecovery executes fn with panic recovery.
// If a panic occurs, it's converted to an error to prevent crashing the worker.
func callWithRecovery[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			var zero T
			result, err = zero, &PanicError{Value: r, Stack: buf[:n]}
		}
	}()

	return fn()
}
