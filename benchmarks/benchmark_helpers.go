package benchmarks

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/utkarsh5026/taskpool/pool"
)

// poolConfig names one pool configuration under benchmark.
type poolConfig struct {
	name    string
	workers int
	opts    []pool.Option
}

// getFeatureConfigs returns the pool with each optional feature switched on.
func getFeatureConfigs(workers int) []poolConfig {
	return []poolConfig{
		{name: "Baseline", workers: workers},
		{name: "Retry", workers: workers, opts: []pool.Option{pool.WithRetryPolicy(3, time.Microsecond)}},
		{name: "RateLimit", workers: workers, opts: []pool.Option{pool.WithRateLimit(1e6, 1000)}},
		{
			name:    "Hooks",
			workers: workers,
			opts: []pool.Option{
				pool.WithBeforeTaskStart(func(int64) {}),
				pool.WithOnTaskEnd(func(int64, error) {}),
			},
		},
		{name: "LockOSThread", workers: workers, opts: []pool.Option{pool.WithLockOSThread()}},
	}
}

// runBatch starts a pool, submits taskCount tasks, waits on every future and
// closes the pool.
func runBatch(b *testing.B, cfg poolConfig, taskCount int, work func(int) (int, error)) {
	b.Helper()

	p, err := pool.New(cfg.workers, cfg.opts...)
	if err != nil {
		b.Fatal(err)
	}

	futures := make([]*pool.Future[int], taskCount)
	for j := range taskCount {
		f, err := pool.SubmitWith(p, work, j)
		if err != nil {
			b.Fatal(err)
		}
		futures[j] = f
	}

	for _, f := range futures {
		if _, err := f.Wait(); err != nil {
			b.Fatal(err)
		}
	}

	if err := p.Close(); err != nil {
		b.Fatal(err)
	}
}

// reportThroughput adds tasks/sec (and tasks/sec/worker when workers > 0).
func reportThroughput(b *testing.B, taskCount, workers int) {
	nsPerOp := float64(b.Elapsed().Nanoseconds()) / float64(b.N)
	tasksPerSec := (float64(taskCount) / nsPerOp) * 1e9

	b.ReportMetric(tasksPerSec, "tasks/sec")
	if workers > 0 {
		b.ReportMetric(tasksPerSec/float64(workers), "tasks/sec/worker")
	}
}

// cpuBoundWork simulates a CPU-intensive operation
func cpuBoundWork(iterations int) func(task int) (int, error) {
	return func(task int) (int, error) {
		result := 0
		for i := range iterations {
			result += i * task
		}
		return result, nil
	}
}

// ioBoundWork simulates an I/O operation with a delay
func ioBoundWork(delay time.Duration) func(task int) (int, error) {
	return func(task int) (int, error) {
		time.Sleep(delay)
		return task * 2, nil
	}
}

// mixedWork simulates a realistic workload with variable processing time
func mixedWork() func(task int) (int, error) {
	return func(task int) (int, error) {
		time.Sleep(time.Duration(task%10) * time.Millisecond)

		result := 0
		for i := range 1000 {
			result += i
		}
		return result + task, nil
	}
}

// percentile returns the p-th percentile of latencies, sorting them in place.
func percentile(latencies []time.Duration, p float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	idx := int(math.Ceil(float64(len(latencies))*p/100.0)) - 1
	idx = max(0, min(idx, len(latencies)-1))
	return latencies[idx]
}
