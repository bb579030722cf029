package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "seqflow"

// Registry holds all metric instances for seqflow components.
type Registry struct {
	// Pipeline Metrics
	StreamOperations *prometheus.CounterVec
	StreamItems      *prometheus.CounterVec
	StreamErrors     *prometheus.CounterVec
	StreamDuration   *prometheus.HistogramVec
	StreamPartitions *prometheus.CounterVec

	// Worker Pool Metrics
	TasksExecuted         *prometheus.CounterVec
	TasksCompleted        *prometheus.CounterVec
	TasksFailed           *prometheus.CounterVec
	TaskExecutionDuration *prometheus.HistogramVec
	WorkerPoolSize        *prometheus.GaugeVec
	WorkerPoolActive      *prometheus.GaugeVec
	WorkerPoolQueued      *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by seqflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return New(Config{Enabled: true, Registry: reg})
}

// New creates a metrics registry from config. A nil Registry falls back to
// prometheus.DefaultRegisterer; Labels are attached to every metric.
// It returns nil, registering nothing, when config.Enabled is false.
func New(config Config) *Registry {
	if !config.Enabled {
		return nil
	}

	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(config.Labels) > 0 {
		reg = prometheus.WrapRegistererWith(config.Labels, reg)
	}

	namespace := config.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	factory := promauto.With(reg)

	return &Registry{
		StreamOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "operations_total",
				Help:      "Total number of terminal operations evaluated",
			},
			[]string{"operation", "stream_name"},
		),

		StreamItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "items_processed_total",
				Help:      "Total number of elements reaching a terminal operation",
			},
			[]string{"operation", "stream_name"},
		),

		StreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "errors_total",
				Help:      "Total number of failed terminal operations",
			},
			[]string{"operation", "stream_name"},
		),

		StreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "duration_seconds",
				Help:      "Time spent evaluating terminal operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "stream_name"},
		),

		StreamPartitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "partitions_total",
				Help:      "Total number of partitions dispatched by concurrent evaluation",
			},
			[]string{"stream_name"},
		),

		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_executed_total",
				Help:      "Total number of tasks executed",
			},
			[]string{"pool_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks completed successfully",
			},
			[]string{"pool_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that failed",
			},
			[]string{"pool_name"},
		),

		TaskExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing tasks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Current worker pool size",
			},
			[]string{"pool_name"},
		),

		WorkerPoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "active_workers",
				Help:      "Number of active workers",
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "queued_tasks",
				Help:      "Number of queued tasks",
			},
			[]string{"pool_name"},
		),
	}
}
