package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
)

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
// Use SubmitWithContext to provide a custom context.
func (p *workerPool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithTimeout submits a task, giving up if it cannot be queued within timeout.
func (p *workerPool) SubmitWithTimeout(task Task, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.SubmitWithContext(ctx, task)
}

// SubmitWithContext adds a task to the pool for execution with the given context.
// The context is passed to the task's Execute method, enabling timeout and
// cancellation propagation. If the pool has a TaskTimeout configured, the
// effective timeout will be the minimum of the context deadline and TaskTimeout.
func (p *workerPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.RLock()
	isShutdown := p.isShutdown
	p.mu.RUnlock()

	if isShutdown {
		return fmt.Errorf("cannot submit task: %w", sferrors.ErrClosed)
	}

	// Check if context is already canceled before attempting to queue
	// This ensures deterministic behavior for pre-canceled contexts
	select {
	case <-ctx.Done():
		return fmt.Errorf("cannot submit task: context canceled: %w", ctx.Err())
	default:
	}

	twc := taskWithContext{
		task: task,
		ctx:  ctx,
	}

	select {
	case p.taskQueue <- twc:
		atomic.AddInt64(&p.totalSubmitted, 1)
		return nil
	case <-p.shutdownCh:
		return fmt.Errorf("cannot submit task: %w", sferrors.ErrClosed)
	case <-ctx.Done():
		return fmt.Errorf("cannot submit task: context canceled: %w", ctx.Err())
	}
}

// Results returns a channel of task results.
func (p *workerPool) Results() <-chan Result {
	return p.resultQueue
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *workerPool) Shutdown() <-chan struct{} {
	done := make(chan struct{})

	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		p.mu.Unlock()

		// Workers drain whatever is already queued, then exit.
		close(p.shutdownCh)
	})

	go func() {
		p.workerWg.Wait()
		p.closeResults()
		p.cancelBase()
		close(done)
	}()

	return done
}

// ShutdownWithTimeout shuts down the pool, canceling running tasks and
// discarding undelivered results if the workers have not exited in time.
func (p *workerPool) ShutdownWithTimeout(timeout time.Duration) <-chan struct{} {
	done := p.Shutdown()

	go func() {
		select {
		case <-done:
		case <-time.After(timeout):
			p.logger.Warn("shutdown timed out, canceling running tasks", zap.Duration("timeout", timeout))
			p.abandon()
		}
	}()

	return done
}

func (p *workerPool) abandon() {
	p.abandonOnce.Do(func() {
		p.cancelBase()
		close(p.abandonCh)
	})
}

func (p *workerPool) closeResults() {
	p.resultsOnce.Do(func() {
		close(p.resultQueue)
	})
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *workerPool) QueueSize() int {
	return len(p.taskQueue)
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *workerPool) ActiveWorkers() int {
	return int(atomic.LoadInt64(&p.activeWorkers))
}

// TotalSubmitted returns the total number of tasks accepted by the pool.
func (p *workerPool) TotalSubmitted() int64 {
	return atomic.LoadInt64(&p.totalSubmitted)
}

// TotalCompleted returns the total number of tasks that finished executing.
func (p *workerPool) TotalCompleted() int64 {
	return atomic.LoadInt64(&p.totalCompleted)
}

// run is the main loop for a worker.
func (w *worker) run() {
	defer w.pool.workerWg.Done()

	for {
		select {
		case twc := <-w.pool.taskQueue:
			w.executeTask(twc)
		case <-w.pool.shutdownCh:
			// Drain tasks accepted before shutdown.
			for {
				select {
				case twc := <-w.pool.taskQueue:
					w.executeTask(twc)
				default:
					return
				}
			}
		}
	}
}

// sendResult delivers a task result, blocking until it is consumed or the pool
// abandons delivery after a timed shutdown.
func (w *worker) sendResult(result Result) {
	select {
	case w.pool.resultQueue <- result:
	case <-w.pool.abandonCh:
	}
}

// executeTask executes a single task with the provided context.
func (w *worker) executeTask(twc taskWithContext) {
	start := time.Now()
	var err error

	atomic.AddInt64(&w.pool.activeWorkers, 1)

	if w.pool.config.OnTaskStart != nil {
		w.pool.config.OnTaskStart(w.id, twc.task)
	}

	// Handle panics during task execution
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v\nStack trace:\n%s", r, debug.Stack())
			w.pool.logger.Error("task panicked", zap.Int("worker_id", w.id), zap.Any("panic", r))
			if w.pool.config.PanicHandler != nil {
				w.pool.config.PanicHandler(twc.task, r)
			}
		}

		atomic.AddInt64(&w.pool.activeWorkers, -1)
		atomic.AddInt64(&w.pool.totalCompleted, 1)

		result := Result{
			Task:     twc.task,
			Error:    err,
			Duration: time.Since(start),
			WorkerID: w.id,
		}

		if w.pool.config.OnTaskComplete != nil {
			w.pool.config.OnTaskComplete(w.id, result)
		}

		w.sendResult(result)
	}()

	// Start with the caller-provided context, canceled as well if the pool is abandoned.
	ctx, cancel := context.WithCancel(twc.ctx)
	defer cancel()
	stop := context.AfterFunc(w.pool.baseCtx, cancel)
	defer stop()

	// Apply TaskTimeout if configured
	// The effective timeout is the minimum of the context deadline and TaskTimeout
	if w.pool.config.TaskTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, w.pool.config.TaskTimeout)
		defer cancelTimeout()
	}

	err = twc.task.Execute(ctx)
}
