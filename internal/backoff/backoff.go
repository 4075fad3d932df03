// Package backoff computes the delay a worker sleeps between attempts when a
// task is configured to retry on failure.
package backoff

import (
	"cmp"
	"math/rand"
	"sync"
	"time"
)

// Kind selects a retry delay algorithm.
type Kind int

const (
	// Exponential doubles the delay on every attempt (default).
	Exponential Kind = iota
	// Jittered randomizes the exponential delay by ±jitter to spread out
	// retries of tasks that failed together.
	Jittered
	// Decorrelated picks each delay between the initial delay and three
	// times the previous one.
	Decorrelated
)

// maxShift caps the exponent so the shift cannot overflow.
const maxShift = 62

// Strategy returns the delay before the next attempt.
// attempt is 0-indexed: 0 is the first retry after the initial failure.
type Strategy interface {
	NextDelay(attempt int) time.Duration
}

// New builds the strategy of the given kind. maxDelay <= 0 means no cap.
func New(kind Kind, initial, maxDelay time.Duration, jitter float64) Strategy {
	if maxDelay <= 0 {
		maxDelay = time.Duration(1<<63 - 1)
	}

	switch kind {
	case Jittered:
		return &jittered{
			initial: initial,
			max:     maxDelay,
			jitter:  clamp(jitter, 0, 1),
			rng:     rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter does not need crypto rand
		}
	case Decorrelated:
		return &decorrelated{
			initial: initial,
			max:     maxDelay,
			prev:    initial,
			rng:     rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter does not need crypto rand
		}
	default:
		return exponential{initial: initial, max: maxDelay}
	}
}

type exponential struct {
	initial, max time.Duration
}

func (e exponential) NextDelay(attempt int) time.Duration {
	return exponentialDelay(attempt, e.initial, e.max)
}

type jittered struct {
	initial, max time.Duration
	jitter       float64

	mu  sync.Mutex
	rng *rand.Rand
}

func (j *jittered) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}

	base := exponentialDelay(attempt, j.initial, j.max)

	j.mu.Lock()
	factor := 1 + (j.rng.Float64()*2-1)*j.jitter
	j.mu.Unlock()

	return clamp(time.Duration(float64(base)*factor), 0, j.max)
}

// decorrelated is stateful: each delay depends on the previous one, so one
// instance should serve one task's retries at a time.
type decorrelated struct {
	initial, max time.Duration

	mu   sync.Mutex
	prev time.Duration
	rng  *rand.Rand
}

func (d *decorrelated) NextDelay(attempt int) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if attempt <= 0 {
		d.prev = d.initial
		return d.initial
	}

	upper := min(time.Duration(float64(d.prev)*3), d.max)
	span := upper - d.initial
	if span <= 0 {
		d.prev = d.initial
		return d.initial
	}

	d.prev = d.initial + time.Duration(d.rng.Int63n(int64(span)))
	return d.prev
}

func exponentialDelay(attempt int, initial, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		return 0
	}
	if attempt > maxShift {
		return maxDelay
	}

	if initial > maxDelay>>uint(attempt) {
		return maxDelay
	}
	return initial << uint(attempt)
}

func clamp[T cmp.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
