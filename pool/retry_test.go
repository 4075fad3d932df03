package pool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errTransient = errors.New("transient failure")

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
		failFirst   int32
		wantCalls   int32
		wantErr     bool
	}{
		{"no retry configured", 1, 1, 1, true},
		{"succeeds on second attempt", 3, 1, 2, false},
		{"succeeds on last attempt", 3, 2, 3, false},
		{"exhausts attempts", 3, 5, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(2, WithRetryPolicy(tt.maxAttempts, time.Millisecond))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer p.Close()

			var calls atomic.Int32
			f, err := Submit(p, func() (string, error) {
				if calls.Add(1) <= tt.failFirst {
					return "", errTransient
				}
				return "ok", nil
			})
			if err != nil {
				t.Fatalf("submit failed: %v", err)
			}

			v, err := f.Wait()
			if tt.wantErr {
				if !errors.Is(err, errTransient) {
					t.Errorf("expected last error to be returned, got %v", err)
				}
			} else if err != nil || v != "ok" {
				t.Errorf("expected ok, got %q, %v", v, err)
			}

			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, got)
			}
		})
	}
}

func TestRetry_PanicIsNotRetried(t *testing.T) {
	p, err := New(1, WithRetryPolicy(5, time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	var calls atomic.Int32
	f, err := p.Go(func() error {
		calls.Add(1)
		panic("broken invariant")
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, err = f.Wait()
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PanicError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("panicking task should run once, ran %d times", calls.Load())
	}
}

func TestRetry_OnRetryHook(t *testing.T) {
	type retryCall struct {
		taskID  int64
		attempt int
	}

	var mu sync.Mutex
	var got []retryCall

	p, err := New(1,
		WithRetryPolicy(4, time.Millisecond),
		WithOnRetry(func(taskID int64, attempt int, err error) {
			if !errors.Is(err, errTransient) {
				t.Errorf("unexpected retry cause: %v", err)
			}
			mu.Lock()
			got = append(got, retryCall{taskID, attempt})
			mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := p.Go(func() error { return errTransient })
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	_, _ = f.Wait()
	_ = p.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("expected 3 retries, got %v", got)
	}
	for i, c := range got {
		if c.taskID != f.ID() {
			t.Errorf("retry %d: expected task %d, got %d", i, f.ID(), c.taskID)
		}
		if c.attempt != i+1 {
			t.Errorf("retry %d: expected attempt %d, got %d", i, i+1, c.attempt)
		}
	}
}

func TestRetry_BackoffDelaysAccumulate(t *testing.T) {
	p, err := New(1,
		WithRetryPolicy(4, 10*time.Millisecond),
		WithBackoff(BackoffExponential, time.Second, 0),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	start := time.Now()
	f, err := p.Go(func() error { return errTransient })
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	_, _ = f.Wait()
	elapsed := time.Since(start)

	// 10ms + 20ms + 40ms between the four attempts.
	if elapsed < 70*time.Millisecond {
		t.Errorf("expected at least 70ms of backoff, got %v", elapsed)
	}
}

func TestRetry_StrategyPerTask(t *testing.T) {
	cfg := newConfig(
		WithRetryPolicy(3, time.Millisecond),
		WithBackoff(BackoffDecorrelated, 50*time.Millisecond, 0),
	)

	a, b := cfg.newBackoff(), cfg.newBackoff()
	if a == b {
		t.Error("each retried task should get its own strategy")
	}
}

func TestWithRetryPolicy_IgnoresInvalidValues(t *testing.T) {
	tests := []struct {
		name         string
		maxAttempts  int
		initialDelay time.Duration
		wantAttempts int
		wantDelay    time.Duration
	}{
		{"valid", 3, 50 * time.Millisecond, 3, 50 * time.Millisecond},
		{"zero attempts keeps default", 0, 50 * time.Millisecond, 1, 50 * time.Millisecond},
		{"negative delay keeps default", 2, -1, 2, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(WithRetryPolicy(tt.maxAttempts, tt.initialDelay))
			if cfg.maxAttempts != tt.wantAttempts {
				t.Errorf("maxAttempts = %d, want %d", cfg.maxAttempts, tt.wantAttempts)
			}
			if cfg.backoffInitialDelay != tt.wantDelay {
				t.Errorf("initialDelay = %v, want %v", cfg.backoffInitialDelay, tt.wantDelay)
			}
		})
	}
}
