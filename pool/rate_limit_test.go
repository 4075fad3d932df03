package pool

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimit_ThrottlesTaskStarts(t *testing.T) {
	p, err := New(4, WithRateLimit(50, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ran atomic.Int32
	start := time.Now()
	for range 6 {
		if _, err := p.Go(func() error {
			ran.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	elapsed := time.Since(start)

	if ran.Load() != 6 {
		t.Errorf("expected 6 tasks, got %d", ran.Load())
	}
	// One token up front, then one every 20ms.
	if elapsed < 90*time.Millisecond {
		t.Errorf("expected rate limiting to take at least 90ms, took %v", elapsed)
	}
}

func TestRateLimit_BurstStartsImmediately(t *testing.T) {
	p, err := New(4, WithRateLimit(1, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	for range 4 {
		if _, err := p.Go(func() error { return nil }); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("burst of 4 should not wait for tokens, took %v", elapsed)
	}
}

func TestWithRateLimit_InvalidValuesDisableLimiter(t *testing.T) {
	tests := []struct {
		name  string
		tps   float64
		burst int
	}{
		{"zero rate", 0, 5},
		{"negative rate", -1, 5},
		{"zero burst", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(WithRateLimit(tt.tps, tt.burst))
			if cfg.rateLimiter != nil {
				t.Error("expected no limiter")
			}
		})
	}
}
