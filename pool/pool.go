package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/utkarsh5026/taskpool/internal/queue"
	"github.com/utkarsh5026/taskpool/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pool is a fixed-size set of workers consuming a shared FIFO of tasks.
//
// The queue, the stopping flag and the condition variable are only touched
// with mu held. Task code never runs with mu held.
type Pool struct {
	workerCount int
	cfg         *config
	log         *zap.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	tasks    *queue.Queue[*types.Task]
	stopping bool
	nextID   int64

	group errgroup.Group
	done  chan struct{} // closed when every worker has returned
}

// New starts a pool of threadCount workers. A threadCount of zero or less is
// coerced to 1, since a pool without workers could never make progress.
//
// Workers are running when New returns. If any worker fails to start (for
// example when WithCPUAffinity cannot pin its thread), the workers that did
// start are stopped and joined and the returned error wraps ErrConstruction.
//
// Example:
//
//	p, err := pool.New(4, pool.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
func New(threadCount int, opts ...Option) (*Pool, error) {
	cfg := newConfig(opts...)
	n := max(threadCount, 1)

	p := &Pool{
		workerCount: n,
		cfg:         cfg,
		log:         cfg.logger,
		tasks:       queue.New[*types.Task](n),
		done:        make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)

	started := make(chan error, n)
	for i := range n {
		p.group.Go(func() error {
			return p.worker(i, started)
		})
	}

	var startErr error
	for range n {
		if err := <-started; err != nil && startErr == nil {
			startErr = err
		}
	}

	go func() {
		_ = p.group.Wait()
		close(p.done)
	}()

	if startErr != nil {
		p.stop()
		<-p.done
		p.log.Error("pool construction failed", zap.Int("workers", n), zap.Error(startErr))
		return nil, fmt.Errorf("%w: %w", ErrConstruction, startErr)
	}

	p.log.Debug("pool started", zap.Int("workers", n))
	return p, nil
}

// Submit queues fn for execution and returns a Future for its outcome.
//
// Submit never blocks on task execution. It fails with ErrPoolStopped once
// Close or Shutdown has been called; tasks queued before that still run.
//
// Example:
//
//	future, err := pool.Submit(p, func() (int, error) {
//	    return compute(), nil
//	})
//	if err != nil {
//	    return err
//	}
//	value, err := future.Wait()
func Submit[T any](p *Pool, fn func() (T, error)) (*Future[T], error) {
	if fn == nil {
		return nil, ErrNilTask
	}

	rc := types.NewResultChannel[T]()
	id, err := p.enqueue(func(id int64) *types.Task {
		return types.NewTask(id, func() error {
			v, err := invoke(p.cfg, id, fn)
			if err != nil {
				rc.WriteFailure(err)
				return err
			}
			rc.Write(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return &Future[T]{id: id, rc: rc}, nil
}

// SubmitWith binds arg to fn and submits the call.
func SubmitWith[A, T any](p *Pool, fn func(A) (T, error), arg A) (*Future[T], error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	return Submit(p, func() (T, error) {
		return fn(arg)
	})
}

// Go submits work that produces no value. The Future reports only its error.
func (p *Pool) Go(fn func() error) (*Future[struct{}], error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	return Submit(p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

// enqueue assigns the next task id, pushes the task built for it and wakes
// one idle worker. One new task needs at most one worker.
func (p *Pool) enqueue(build func(id int64) *types.Task) (int64, error) {
	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		p.cfg.observer.TaskRejected()
		return 0, ErrPoolStopped
	}

	p.nextID++
	id := p.nextID
	p.tasks.Push(build(id))
	depth := p.tasks.Len()
	p.mu.Unlock()

	p.cond.Signal()
	p.cfg.observer.TaskSubmitted(depth)
	return id, nil
}

// Size returns the number of workers. It never changes after New.
func (p *Pool) Size() int {
	return p.workerCount
}

// Pending returns how many tasks are queued and not yet picked up.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.Len()
}

// Stopped reports whether shutdown has begun.
func (p *Pool) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopping
}

// Close stops accepting tasks, lets the workers drain everything already
// queued, and returns once every worker has exited. Tasks that are running
// finish normally. Close is safe to call more than once and from several
// goroutines; every call returns after the workers are gone.
//
// Close must not be called from task code: the calling worker would wait for
// itself to exit. A task that needs to stop its own pool can call Shutdown
// with a timeout, which returns ErrShutdownTimeout and lets the worker finish.
func (p *Pool) Close() error {
	return p.Shutdown(0)
}

// Shutdown is Close with a deadline. If the workers are still draining after
// timeout it returns ErrShutdownTimeout; they keep going, and a later Close
// waits for them. A timeout of zero or less waits forever, and like Close
// must then not be called from task code.
//
// Example:
//
//	if err := p.Shutdown(5 * time.Second); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
func (p *Pool) Shutdown(timeout time.Duration) error {
	p.stop()
	return waitUntil(p.done, timeout)
}

// stop flips the stopping flag and wakes every worker so each re-checks
// its exit condition.
func (p *Pool) stop() {
	p.mu.Lock()
	already := p.stopping
	p.stopping = true
	pending := p.tasks.Len()
	p.mu.Unlock()

	p.cond.Broadcast()

	if !already {
		p.log.Debug("pool stopping", zap.Int("pending", pending))
	}
}

// waitUntil blocks until either the done channel is closed or the timeout is reached.
func waitUntil(d <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-d
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-d:
		return nil
	case <-timer.C:
		return ErrShutdownTimeout
	}
}
