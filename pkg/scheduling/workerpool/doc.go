/*
Package workerpool provides the fixed-size worker pool that backs concurrent
pipeline evaluation.

A pool owns WorkerCount goroutines that pull tasks from a queue, run them with
the submitter's context, recover panics into errors and publish exactly one
Result per task:

	pool := workerpool.New(4, 16) // 4 workers, queue size 16
	defer func() { <-pool.Shutdown() }()

	err := workerpool.Run(ctx, pool,
		workerpool.TaskFunc(func(ctx context.Context) error { return nil }),
		workerpool.TaskFunc(func(ctx context.Context) error { return nil }),
	)

Run submits a batch, waits for all of it, and reports the first failure in
submission order. Callers that consume Results directly must drain the
channel, since workers block until their result is delivered.

Shutdown stops accepting tasks, lets queued tasks finish and closes Results.
ShutdownWithTimeout additionally cancels running tasks once the timeout
expires.

NewWithRegistry and NewWithConfigAndMetrics wrap a pool with Prometheus
instrumentation from package metrics.
*/
package workerpool
