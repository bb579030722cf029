package workerpool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result represents the result of a task execution.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error that occurred during task execution
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool represents a fixed-size worker pool that executes tasks concurrently.
type Pool interface {
	// Submit adds a task to the pool for execution.
	// Returns an error if the pool is shut down or if the task cannot be queued.
	Submit(task Task) error

	// SubmitWithTimeout submits a task with a timeout for queuing.
	// If the task cannot be queued within the timeout, it returns an error.
	SubmitWithTimeout(task Task, timeout time.Duration) error

	// SubmitWithContext submits a task with a context for cancellation.
	// The context bounds queuing and is passed to the task's Execute method.
	SubmitWithContext(ctx context.Context, task Task) error

	// Results returns a channel of task results.
	// The channel is closed when the pool is shut down and all tasks are complete.
	// Every submitted task produces exactly one result, so the channel must be
	// drained unless BufferedResults is large enough.
	Results() <-chan Result

	// Shutdown initiates a graceful shutdown of the pool.
	// No new tasks will be accepted, but queued tasks will be completed.
	// Returns a channel that closes when shutdown is complete.
	Shutdown() <-chan struct{}

	// ShutdownWithTimeout shuts down the pool with a timeout.
	// If shutdown doesn't complete within the timeout, running tasks are canceled
	// and undelivered results are discarded.
	ShutdownWithTimeout(timeout time.Duration) <-chan struct{}

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the current number of queued tasks waiting for execution.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks submitted to the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks completed by the pool.
	TotalCompleted() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// QueueSize is the capacity of the task queue.
	// Zero means submissions block until a worker picks the task up.
	QueueSize int

	// TaskTimeout is the default timeout for individual task execution.
	// Zero means no timeout.
	TaskTimeout time.Duration

	// BufferedResults determines if results should be buffered.
	// If true, the result channel is buffered to WorkerCount + QueueSize.
	BufferedResults bool

	// Logger receives worker lifecycle and panic events. Defaults to zap.L().
	Logger *zap.Logger

	// PanicHandler is called when a worker panics during task execution.
	// The panic is always converted into the task's Result.Error.
	PanicHandler func(task Task, recovered interface{})

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(workerID int, task Task)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(workerID int, result Result)
}

// taskWithContext carries the submitter's context to the worker.
type taskWithContext struct {
	task Task
	ctx  context.Context
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config
	logger *zap.Logger

	// Core pool state
	workers      []worker
	taskQueue    chan taskWithContext
	resultQueue  chan Result
	shutdownCh   chan struct{}
	abandonCh    chan struct{}
	shutdownOnce sync.Once
	abandonOnce  sync.Once
	resultsOnce  sync.Once

	// baseCtx is canceled when a timed shutdown expires.
	baseCtx    context.Context
	cancelBase context.CancelFunc

	// State tracking
	mu             sync.RWMutex
	isShutdown     bool
	activeWorkers  int64
	totalSubmitted int64
	totalCompleted int64

	// Worker management
	workerWg sync.WaitGroup
}

// worker represents a single worker in the pool.
type worker struct {
	id   int
	pool *workerPool
}

// New creates a new worker pool with the specified number of workers and queue size.
func New(workerCount, queueSize int) Pool {
	return NewWithConfig(Config{
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	})
}

// NewWithConfig creates a new worker pool with the specified configuration.
// It panics if WorkerCount is not positive or QueueSize is negative.
func NewWithConfig(config Config) Pool {
	if config.WorkerCount <= 0 {
		panic("worker count must be positive")
	}

	if config.QueueSize < 0 {
		panic("queue size must be >= 0")
	}

	resultSize := 0
	if config.BufferedResults {
		resultSize = config.WorkerCount + config.QueueSize
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.L()
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	pool := &workerPool{
		config:      config,
		logger:      logger.With(zap.String("component", "workerpool")),
		taskQueue:   make(chan taskWithContext, config.QueueSize),
		resultQueue: make(chan Result, resultSize),
		shutdownCh:  make(chan struct{}),
		abandonCh:   make(chan struct{}),
		baseCtx:     baseCtx,
		cancelBase:  cancel,
	}

	// Create and start workers
	pool.workers = make([]worker, config.WorkerCount)
	for i := 0; i < config.WorkerCount; i++ {
		pool.workers[i] = worker{id: i, pool: pool}
		pool.workerWg.Add(1)
		go pool.workers[i].run()
	}

	return pool
}
