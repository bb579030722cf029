package stream

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/emirpasic/gods/sets/hashset"
	"go.uber.org/zap"

	"github.com/vnykmshr/seqflow/pkg/scheduling/workerpool"
)

// executor runs partitions on a worker pool for the duration of one terminal
// evaluation. Batches of up to workers partitions are dispatched at a time and
// their results are combined on the coordinating goroutine in partition order.
type executor struct {
	pool       workerpool.Pool
	workers    int
	chunk      int
	stop       atomic.Bool
	partitions atomic.Int64

	// limits holds the remaining budgets of the Limit stages being evaluated.
	// Only the coordinating goroutine touches it.
	limits []*int64
}

func newExecutor(cfg Config, logger *zap.Logger) *executor {
	poolCfg := workerpool.Config{
		WorkerCount: cfg.Workers,
		QueueSize:   cfg.Workers,
		Logger:      logger,
	}
	return &executor{
		pool:    workerpool.NewWithRegistry(poolCfg, cfg.Name, cfg.Metrics),
		workers: cfg.Workers,
		chunk:   cfg.ChunkSize,
	}
}

func (ex *executor) shutdown() {
	<-ex.pool.Shutdown()
}

// stopped reports whether a short-circuiting terminal has its answer.
func (ex *executor) stopped() bool {
	return ex.stop.Load()
}

// bound registers budget as the number of source elements a Limit stage can
// still use. The returned func unregisters it.
func (ex *executor) bound(budget *int64) func() {
	ex.limits = append(ex.limits, budget)
	return func() {
		ex.limits = slices.DeleteFunc(ex.limits, func(b *int64) bool { return b == budget })
	}
}

// budget returns the smallest registered Limit budget. While one is
// registered, chunked sources pull no more than that and every partition is
// combined before the next is pulled, so no element is read that sequential
// evaluation would not read.
func (ex *executor) budget() (int64, bool) {
	if len(ex.limits) == 0 {
		return 0, false
	}
	least := *ex.limits[0]
	for _, b := range ex.limits[1:] {
		least = min(least, *b)
	}
	return least, true
}

// partitionSize spreads n elements across the workers, capped at the chunk size.
func (ex *executor) partitionSize(n uint64) int {
	per := n / uint64(ex.workers)
	if n%uint64(ex.workers) != 0 {
		per++
	}
	return int(max(1, min(per, uint64(ex.chunk))))
}

// runBatch evaluates each partition of batch with work on the pool and
// returns the results indexed like batch.
func runBatch[T, R any](ctx context.Context, ex *executor, batch []seq[T], work func(context.Context, seq[T]) (R, error)) ([]R, error) {
	results := make([]R, len(batch))
	tasks := make([]workerpool.Task, len(batch))
	for i, part := range batch {
		tasks[i] = workerpool.TaskFunc(func(ctx context.Context) error {
			r, err := work(ctx, part)
			results[i] = r
			return err
		})
	}
	ex.partitions.Add(int64(len(batch)))
	if err := workerpool.Run(ctx, ex.pool, tasks...); err != nil {
		return nil, err
	}
	return results, nil
}

// eachBatch groups the partitions of up into batches of ex.workers and hands
// each batch to fn. fn returning false stops pulling partitions.
func eachBatch[T any](ctx context.Context, ex *executor, up parts[T], fn func([]seq[T]) (bool, error)) error {
	var (
		batch    []seq[T]
		batchErr error
	)
	flush := func() bool {
		b := batch
		batch = nil
		more, err := fn(b)
		if err != nil {
			batchErr = err
			return false
		}
		return more && !ex.stopped()
	}

	err := up(ctx, ex, func(part seq[T]) bool {
		batch = append(batch, part)
		if _, bounded := ex.budget(); !bounded && len(batch) < ex.workers {
			return true
		}
		return flush()
	})
	if err == nil && batchErr == nil && len(batch) > 0 {
		flush()
	}
	if batchErr != nil {
		return batchErr
	}
	return err
}

// mapPartitions evaluates every partition of up with work and passes the
// results to combine in partition order. combine returning false stops the
// evaluation after the current batch.
func mapPartitions[T, R any](ctx context.Context, ex *executor, up parts[T], work func(context.Context, seq[T]) (R, error), combine func(R) bool) error {
	return eachBatch(ctx, ex, up, func(batch []seq[T]) (bool, error) {
		results, err := runBatch(ctx, ex, batch, work)
		if err != nil {
			return false, err
		}
		for _, r := range results {
			if !combine(r) {
				return false, nil
			}
		}
		return true, nil
	})
}

// limitParts takes the first n elements. Unless a sort sits upstream, the
// limit bounds how far chunked sources read ahead: by the remaining count
// when every upstream stage yields at most one element per input, and to one
// element per partition after a FlatMap.
func limitParts[T any](up parts[T], n int64, f fanout) parts[T] {
	return func(ctx context.Context, ex *executor, yield func(seq[T]) bool) error {
		if n == 0 {
			return nil
		}
		remaining := n
		switch f {
		case fanoutNarrowing:
			defer ex.bound(&remaining)()
		case fanoutExpanding:
			one := int64(1)
			defer ex.bound(&one)()
		}
		return mapPartitions(ctx, ex, up, materialize[T], func(chunk []T) bool {
			if int64(len(chunk)) > remaining {
				chunk = chunk[:remaining]
			}
			remaining -= int64(len(chunk))
			if len(chunk) > 0 && !yield(sliceSeq(chunk)) {
				return false
			}
			return remaining > 0
		})
	}
}

func skipParts[T any](up parts[T], n int64) parts[T] {
	return func(ctx context.Context, ex *executor, yield func(seq[T]) bool) error {
		remaining := n
		return eachBatch(ctx, ex, up, func(batch []seq[T]) (bool, error) {
			if remaining == 0 {
				for _, part := range batch {
					if !yield(part) {
						return false, nil
					}
				}
				return true, nil
			}

			chunks, err := runBatch(ctx, ex, batch, materialize[T])
			if err != nil {
				return false, err
			}
			for _, chunk := range chunks {
				drop := min(remaining, int64(len(chunk)))
				remaining -= drop
				chunk = chunk[drop:]
				if len(chunk) > 0 && !yield(sliceSeq(chunk)) {
					return false, nil
				}
			}
			return true, nil
		})
	}
}

// distinctParts deduplicates each partition on its worker, then filters the
// survivors against a global seen set in partition order, so the first
// occurrence in encounter order wins.
func distinctParts[T any](up parts[T], key func(T) interface{}) parts[T] {
	return func(ctx context.Context, ex *executor, yield func(seq[T]) bool) error {
		seen := hashset.New()
		local := func(ctx context.Context, part seq[T]) ([]T, error) {
			here := hashset.New()
			var out []T
			var keyErr error
			err := part(ctx, func(v T) bool {
				var added bool
				if added, keyErr = addKey(here, key(v)); keyErr != nil {
					return false
				}
				if added {
					out = append(out, v)
				}
				return true
			})
			if keyErr != nil {
				return nil, keyErr
			}
			return out, err
		}

		var keyErr error
		err := mapPartitions(ctx, ex, up, local, func(chunk []T) bool {
			out := chunk[:0]
			for _, v := range chunk {
				var added bool
				if added, keyErr = addKey(seen, key(v)); keyErr != nil {
					return false
				}
				if added {
					out = append(out, v)
				}
			}
			return len(out) == 0 || yield(sliceSeq(out))
		})
		if keyErr != nil {
			return keyErr
		}
		return err
	}
}

// sortedParts sorts each partition on its worker and merges the sorted runs
// on the coordinator. The merge keeps equal elements in partition order, so
// the result matches a sequential stable sort.
func sortedParts[T any](up parts[T], compare func(a, b T) int) parts[T] {
	return func(ctx context.Context, ex *executor, yield func(seq[T]) bool) error {
		sortRun := func(ctx context.Context, part seq[T]) ([]T, error) {
			run, err := materialize(ctx, part)
			slices.SortStableFunc(run, compare)
			return run, err
		}

		var runs [][]T
		err := mapPartitions(ctx, ex, up, sortRun, func(run []T) bool {
			if len(run) > 0 {
				runs = append(runs, run)
			}
			return true
		})
		if err != nil {
			return err
		}

		all := mergeRuns(runs, compare)
		for lo := 0; lo < len(all); lo += ex.chunk {
			hi := min(lo+ex.chunk, len(all))
			if !yield(sliceSeq(all[lo:hi:hi])) {
				return nil
			}
		}
		return nil
	}
}

// mergeRuns merges adjacent pairs of sorted runs until one remains.
func mergeRuns[T any](runs [][]T, compare func(a, b T) int) []T {
	if len(runs) == 0 {
		return nil
	}
	for len(runs) > 1 {
		next := make([][]T, 0, (len(runs)+1)/2)
		for i := 0; i < len(runs); i += 2 {
			if i+1 == len(runs) {
				next = append(next, runs[i])
				continue
			}
			next = append(next, mergeTwo(runs[i], runs[i+1], compare))
		}
		runs = next
	}
	return runs[0]
}

// mergeTwo merges two sorted runs, taking from a on ties.
func mergeTwo[T any](a, b []T, compare func(a, b T) int) []T {
	out := make([]T, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if compare(b[j], a[i]) < 0 {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
