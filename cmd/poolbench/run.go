package main

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/utkarsh5026/taskpool/metrics"
	"github.com/utkarsh5026/taskpool/pool"
	"go.uber.org/zap"
)

const metricsNamespace = "poolbench"

var errInjected = errors.New("injected task failure")

// RunResult holds the measurements of one scenario run.
type RunResult struct {
	Scenario Scenario

	Size      int
	Counter   int64
	Succeeded int
	Failed    int
	Panicked  int

	Submitted float64
	Completed float64
	Errored   float64
	Panics    float64

	TotalTime time.Duration
	P50       time.Duration
	P95       time.Duration
	P99       time.Duration

	Err error
}

// Passed reports whether the run matched what the scenario predicts.
func (r RunResult) Passed() bool {
	if r.Err != nil {
		return false
	}
	succeeded, failed, panicked := r.Scenario.expected()
	return r.Size == r.Scenario.Workers &&
		r.Counter == int64(succeeded) &&
		r.Succeeded == succeeded &&
		r.Failed == failed &&
		r.Panicked == panicked &&
		r.Submitted == float64(r.Scenario.total()) &&
		r.Completed == float64(succeeded) &&
		r.Errored == float64(failed+panicked) &&
		r.Panics == float64(panicked)
}

// runScenario builds a pool for sc, submits its tasks, waits on every future
// and closes the pool. bar may be nil.
func runScenario(sc Scenario, logger *zap.Logger, bar *progressbar.ProgressBar) RunResult {
	res := RunResult{Scenario: sc}
	log := logger.With(zap.String("scenario", sc.Name))

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg, metricsNamespace)

	opts := append(sc.poolOptions(),
		pool.WithLogger(log),
		pool.WithObserver(collector),
		pool.WithOnRetry(func(taskID int64, attempt int, err error) {
			log.Debug("retrying task", zap.Int64("task_id", taskID), zap.Int("attempt", attempt), zap.Error(err))
		}),
	)

	start := time.Now()
	p, err := pool.New(sc.Workers, opts...)
	if err != nil {
		res.Err = err
		return res
	}
	res.Size = p.Size()

	var counter atomic.Int64
	latencies := make([]time.Duration, sc.total())
	futures := make([]*pool.Future[struct{}], 0, sc.total())

	submit := func(j int) error {
		panics, fails := sc.outcome(j)
		submitted := time.Now()
		f, err := p.Go(func() error {
			defer func() { latencies[j-1] = time.Since(submitted) }()
			if panics {
				panic(fmt.Sprintf("task %d: injected panic", j))
			}
			if fails {
				return fmt.Errorf("task %d: %w", j, errInjected)
			}
			if sc.Sleep > 0 {
				time.Sleep(sc.Sleep)
			}
			counter.Add(1)
			return nil
		})
		if err != nil {
			return err
		}
		futures = append(futures, f)
		return nil
	}

	for j := 1; j <= sc.Tasks; j++ {
		if err := submit(j); err != nil {
			res.Err = err
			break
		}
	}
	if res.Err == nil && sc.Delayed > 0 {
		time.Sleep(sc.DelayedAfter)
		for j := sc.Tasks + 1; j <= sc.total(); j++ {
			if err := submit(j); err != nil {
				res.Err = err
				break
			}
		}
	}

	for _, f := range futures {
		_, err := f.Wait()
		var pe *pool.PanicError
		switch {
		case err == nil:
			res.Succeeded++
		case errors.As(err, &pe):
			res.Panicked++
		default:
			res.Failed++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if err := p.Close(); err != nil && res.Err == nil {
		res.Err = err
	}
	res.TotalTime = time.Since(start)
	res.Counter = counter.Load()

	if res.Err == nil {
		res.P50 = percentile(latencies, 50)
		res.P95 = percentile(latencies, 95)
		res.P99 = percentile(latencies, 99)
	}

	if err := res.readMetrics(reg); err != nil && res.Err == nil {
		res.Err = err
	}

	log.Info("scenario finished",
		zap.Int("workers", res.Size),
		zap.Int64("counter", res.Counter),
		zap.Duration("elapsed", res.TotalTime),
		zap.Bool("passed", res.Passed()),
	)
	return res
}

// readMetrics copies the collector's counters out of the registry.
func (r *RunResult) readMetrics(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	targets := map[string]*float64{
		metricsNamespace + "_tasks_submitted_total": &r.Submitted,
		metricsNamespace + "_tasks_completed_total": &r.Completed,
		metricsNamespace + "_tasks_failed_total":    &r.Errored,
		metricsNamespace + "_tasks_panicked_total":  &r.Panics,
	}
	for _, mf := range families {
		dst, ok := targets[mf.GetName()]
		if !ok || len(mf.GetMetric()) == 0 {
			continue
		}
		*dst = mf.GetMetric()[0].GetCounter().GetValue()
	}
	return nil
}

// percentile returns the p-th percentile of latencies, sorting them in place.
func percentile(latencies []time.Duration, p float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	idx := int(float64(len(latencies))*p/100.0+0.5) - 1
	idx = max(0, min(idx, len(latencies)-1))
	return latencies[idx]
}
