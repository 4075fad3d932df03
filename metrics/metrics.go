// Package metrics exports pool activity as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/utkarsh5026/taskpool/pool"
)

// DefaultNamespace prefixes every metric name when none is given.
const DefaultNamespace = "taskpool"

var _ pool.Observer = (*Collector)(nil)

// Collector implements pool.Observer. Pass it to pool.WithObserver.
//
// A task that returns an error counts as failed; a task that panics counts
// as both failed and panicked. Completed counts only successes.
type Collector struct {
	TasksSubmitted prometheus.Counter
	TasksRejected  prometheus.Counter
	TasksCompleted prometheus.Counter
	TasksFailed    prometheus.Counter
	TasksPanicked  prometheus.Counter

	QueueDepth  prometheus.Gauge
	BusyWorkers prometheus.Gauge

	TaskDuration prometheus.Histogram
}

// NewCollector registers the pool metrics with registerer under namespace.
// A nil registerer means prometheus.DefaultRegisterer, an empty namespace
// means DefaultNamespace. It panics if the metrics are already registered.
func NewCollector(registerer prometheus.Registerer, namespace string) *Collector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	factory := promauto.With(registerer)
	return &Collector{
		TasksSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks accepted into the queue",
		}),
		TasksRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_rejected_total",
			Help:      "Total number of submissions refused because the pool was stopping",
		}),
		TasksCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks that finished without error",
		}),
		TasksFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks that returned an error or panicked",
		}),
		TasksPanicked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_panicked_total",
			Help:      "Total number of tasks that panicked",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of tasks waiting for a worker, as of the last submit or dequeue",
		}),
		BusyWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "busy_workers",
			Help:      "Number of workers currently running a task",
		}),
		TaskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task execution time in seconds, retries included",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
		}),
	}
}

// TaskSubmitted counts an accepted task and records the queue depth.
func (c *Collector) TaskSubmitted(queueDepth int) {
	c.TasksSubmitted.Inc()
	c.QueueDepth.Set(float64(queueDepth))
}

// TaskRejected counts a submission refused by a stopping pool.
func (c *Collector) TaskRejected() {
	c.TasksRejected.Inc()
}

// TaskStarted records the queue depth and marks one more worker busy.
func (c *Collector) TaskStarted(queueDepth int) {
	c.QueueDepth.Set(float64(queueDepth))
	c.BusyWorkers.Inc()
}

// TaskFinished records the duration and counts the outcome.
func (c *Collector) TaskFinished(elapsed time.Duration, err error) {
	c.BusyWorkers.Dec()
	c.TaskDuration.Observe(elapsed.Seconds())

	if err == nil {
		c.TasksCompleted.Inc()
		return
	}

	c.TasksFailed.Inc()
	var pe *pool.PanicError
	if errors.As(err, &pe) {
		c.TasksPanicked.Inc()
	}
}
