/*
Package scheduling provides task execution primitives used by parallel
pipeline evaluation.

  - workerpool: Fixed worker pool for concurrent task execution

Worker Pool:

	pool := workerpool.New(4, 100) // 4 workers, queue size 100
	defer func() { <-pool.Shutdown() }()

	task := workerpool.TaskFunc(func(ctx context.Context) error {
		// Do work
		return nil
	})

	// Run blocks until every task has finished and reports the first
	// failure in submission order.
	err := workerpool.Run(ctx, pool, task, task)

The pool is safe for concurrent use and integrates with context for
cancellation and timeout handling.
*/
package scheduling
