package workerpool

import (
	"context"
	"time"

	"github.com/vnykmshr/seqflow/pkg/metrics"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry *metrics.Registry
}

// NewWithConfigAndMetrics creates a new worker pool with custom config and metrics.
// A fresh metrics.Registry is registered on metricsConfig.Registry, so each
// Prometheus registerer may back at most one such pool; use NewWithRegistry to
// share an existing metrics.Registry between pools. A disabled config yields
// a plain pool.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) Pool {
	registry := metrics.DefaultRegistry
	if !metricsConfig.Enabled || metricsConfig.Registry != nil {
		registry = metrics.New(metricsConfig)
	}

	return NewWithRegistry(config, name, registry)
}

// NewWithRegistry creates a worker pool recording into an existing registry.
// A nil registry disables instrumentation.
func NewWithRegistry(config Config, name string, registry *metrics.Registry) Pool {
	basePool := NewWithConfig(config)
	if registry == nil {
		return basePool
	}

	mp := &MetricsPool{
		pool:     basePool,
		name:     name,
		registry: registry,
	}
	mp.updateMetrics()

	return mp
}

// updateMetrics updates the current state metrics.
func (mp *MetricsPool) updateMetrics() {
	mp.registry.WorkerPoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Size()))
	mp.registry.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
	mp.registry.WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Submit adds a task to the pool for execution.
func (mp *MetricsPool) Submit(task Task) error {
	return mp.SubmitWithContext(context.Background(), task)
}

// SubmitWithTimeout submits a task with a timeout for queuing.
func (mp *MetricsPool) SubmitWithTimeout(task Task, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return mp.SubmitWithContext(ctx, task)
}

// SubmitWithContext submits a task with a context for cancellation.
func (mp *MetricsPool) SubmitWithContext(ctx context.Context, task Task) error {
	wrappedTask := &metricsTask{
		original: task,
		pool:     mp,
	}

	err := mp.pool.SubmitWithContext(ctx, wrappedTask)
	mp.updateMetrics()

	return err
}

// metricsTask wraps a Task to collect execution metrics.
type metricsTask struct {
	original Task
	pool     *MetricsPool
}

// Unwrap returns the decorated task.
func (mt *metricsTask) Unwrap() Task {
	return mt.original
}

// Execute runs the original task and records metrics.
func (mt *metricsTask) Execute(ctx context.Context) error {
	start := time.Now()

	err := mt.original.Execute(ctx)

	name := mt.pool.name
	mt.pool.registry.TaskExecutionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	mt.pool.registry.TasksExecuted.WithLabelValues(name).Inc()

	if err != nil {
		mt.pool.registry.TasksFailed.WithLabelValues(name).Inc()
	} else {
		mt.pool.registry.TasksCompleted.WithLabelValues(name).Inc()
	}

	mt.pool.updateMetrics()

	return err
}

// Results returns a channel of task results.
func (mp *MetricsPool) Results() <-chan Result {
	return mp.pool.Results()
}

// Shutdown initiates graceful shutdown of the pool.
func (mp *MetricsPool) Shutdown() <-chan struct{} {
	return mp.pool.Shutdown()
}

// ShutdownWithTimeout shuts down the pool with a timeout.
func (mp *MetricsPool) ShutdownWithTimeout(timeout time.Duration) <-chan struct{} {
	return mp.pool.ShutdownWithTimeout(timeout)
}

// Size returns the current number of workers.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// QueueSize returns the current number of queued tasks.
func (mp *MetricsPool) QueueSize() int {
	return mp.pool.QueueSize()
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (mp *MetricsPool) ActiveWorkers() int {
	return mp.pool.ActiveWorkers()
}

// TotalSubmitted returns the total number of tasks submitted.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted returns the total number of tasks completed.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}
