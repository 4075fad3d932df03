package pool

import (
	"time"

	"github.com/utkarsh5026/taskpool/internal/backoff"
	"github.com/utkarsh5026/taskpool/internal/cpu"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BackoffType selects how retry delays grow. See WithBackoff.
type BackoffType = backoff.Kind

const (
	// BackoffExponential doubles the delay on each retry (default).
	BackoffExponential = backoff.Exponential
	// BackoffJittered randomizes the exponential delay by ±jitter.
	BackoffJittered = backoff.Jittered
	// BackoffDecorrelated uses AWS-style decorrelated jitter.
	BackoffDecorrelated = backoff.Decorrelated
)

// Option is a functional option for configuring the pool.
type Option func(*config)

type config struct {
	logger *zap.Logger

	maxAttempts         int
	backoffType         BackoffType
	backoffInitialDelay time.Duration
	backoffMaxDelay     time.Duration
	backoffJitterFactor float64

	rateLimiter *rate.Limiter

	lockOSThread bool
	pinCPU       bool

	beforeTaskStart func(taskID int64)
	onTaskEnd       func(taskID int64, err error)
	onRetry         func(taskID int64, attempt int, err error)
	observer        Observer

	// workerSetup runs first on every worker goroutine. Tests replace it to
	// simulate workers that cannot start.
	workerSetup func(workerID int) (release func(), err error)
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		logger:              zap.NewNop(),
		maxAttempts:         1,
		backoffType:         BackoffExponential,
		backoffInitialDelay: 100 * time.Millisecond,
		backoffMaxDelay:     5 * time.Second,
		backoffJitterFactor: 0.1,
		observer:            noopObserver{},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.workerSetup == nil {
		cfg.workerSetup = cfg.defaultWorkerSetup
	}
	return cfg
}

func (cfg *config) defaultWorkerSetup(workerID int) (func(), error) {
	if !cfg.lockOSThread {
		return func() {}, nil
	}
	return cpu.Setup(workerID, cfg.pinCPU)
}

// newBackoff returns a fresh strategy; one is built per retried task because
// decorrelated jitter keeps state between attempts.
func (cfg *config) newBackoff() backoff.Strategy {
	return backoff.New(cfg.backoffType, cfg.backoffInitialDelay, cfg.backoffMaxDelay, cfg.backoffJitterFactor)
}

// WithLogger sets the logger used for worker lifecycle and task failures.
// Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithRetryPolicy re-invokes a failing task function up to maxAttempts times
// in total. initialDelay is the delay before the first retry; later delays
// follow the backoff strategy (exponential unless WithBackoff says
// otherwise). Panics are never retried.
//
// The task is still dequeued and run once; the retries happen inside that
// single run, on the same worker.
func WithRetryPolicy(maxAttempts int, initialDelay time.Duration) Option {
	return func(cfg *config) {
		if maxAttempts > 0 {
			cfg.maxAttempts = maxAttempts
		}
		if initialDelay >= 0 {
			cfg.backoffInitialDelay = initialDelay
		}
	}
}

// WithBackoff selects the retry delay algorithm, the delay cap and, for
// BackoffJittered, the jitter factor in [0, 1].
func WithBackoff(kind BackoffType, maxDelay time.Duration, jitterFactor float64) Option {
	return func(cfg *config) {
		cfg.backoffType = kind
		if maxDelay > 0 {
			cfg.backoffMaxDelay = maxDelay
		}
		if jitterFactor >= 0 {
			cfg.backoffJitterFactor = jitterFactor
		}
	}
}

// WithRateLimit caps how fast workers start tasks.
// tasksPerSecond specifies the sustained rate, burst how many may start at once.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 tasks/sec with burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithLockOSThread dedicates one OS thread to each worker for its lifetime.
func WithLockOSThread() Option {
	return func(cfg *config) {
		cfg.lockOSThread = true
	}
}

// WithCPUAffinity locks each worker to its own OS thread and pins worker i to
// CPU i % NumCPU where the platform supports it. If pinning fails, New fails.
func WithCPUAffinity() Option {
	return func(cfg *config) {
		cfg.lockOSThread = true
		cfg.pinCPU = true
	}
}

// WithBeforeTaskStart registers a hook called on the worker right before a
// task runs. Hooks should not panic; a panic is recovered and logged at
// Error and the task still runs.
func WithBeforeTaskStart(fn func(taskID int64)) Option {
	return func(cfg *config) {
		cfg.beforeTaskStart = fn
	}
}

// WithOnTaskEnd registers a hook called on the worker after a task ran and
// its outcome was delivered to the Future. Hooks should not panic; a panic is
// recovered and logged at Error.
func WithOnTaskEnd(fn func(taskID int64, err error)) Option {
	return func(cfg *config) {
		cfg.onTaskEnd = fn
	}
}

// WithOnRetry registers a hook called before each retry with the attempt
// number (1 = first retry) and the error that caused it.
func WithOnRetry(fn func(taskID int64, attempt int, err error)) Option {
	return func(cfg *config) {
		cfg.onRetry = fn
	}
}

// WithObserver attaches an Observer, such as metrics.Collector.
func WithObserver(o Observer) Option {
	return func(cfg *config) {
		if o != nil {
			cfg.observer = o
		}
	}
}
