package stream

import (
	"context"
	"sync/atomic"
)

// seq pushes elements into yield until the sequence ends or yield returns
// false. Every call starts a fresh traversal with fresh stage state.
type seq[T any] func(ctx context.Context, yield func(T) bool) error

// parts pushes the partitions of a sequence in encounter order. Partitions
// are evaluated by the executor's workers; the parts function itself runs on
// the coordinating goroutine.
type parts[T any] func(ctx context.Context, ex *executor, yield func(seq[T]) bool) error

// plan holds the two evaluation forms of a pipeline.
type plan[T any] struct {
	seq   seq[T]
	parts parts[T]
}

func emptyPlan[T any]() plan[T] {
	return plan[T]{
		seq: func(context.Context, func(T) bool) error { return nil },
		parts: func(context.Context, *executor, func(seq[T]) bool) error {
			return nil
		},
	}
}

// stateless applies wrap to the sequential form and to every partition.
func stateless[T, R any](p plan[T], wrap func(seq[T]) seq[R]) plan[R] {
	return plan[R]{
		seq: wrap(p.seq),
		parts: func(ctx context.Context, ex *executor, yield func(seq[R]) bool) error {
			return p.parts(ctx, ex, func(part seq[T]) bool {
				return yield(wrap(part))
			})
		},
	}
}

// barrier builds a stage that needs to see across partitions.
func barrier[T any](p plan[T], sequential func(seq[T]) seq[T], concurrent func(parts[T]) parts[T]) plan[T] {
	return plan[T]{
		seq:   sequential(p.seq),
		parts: concurrent(p.parts),
	}
}

// counted increments n for each element leaving the plan.
func counted[T any](p plan[T], n *atomic.Int64) plan[T] {
	return stateless(p, func(up seq[T]) seq[T] {
		return func(ctx context.Context, yield func(T) bool) error {
			return up(ctx, func(v T) bool {
				n.Add(1)
				return yield(v)
			})
		}
	})
}

// sliceSeq yields the elements of items.
func sliceSeq[T any](items []T) seq[T] {
	return func(ctx context.Context, yield func(T) bool) error {
		for _, v := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !yield(v) {
				return nil
			}
		}
		return nil
	}
}

// pull drains src one element at a time.
func pull[T any](src Source[T]) seq[T] {
	return func(ctx context.Context, yield func(T) bool) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, ok, err := src.Next(ctx)
			if err != nil {
				return err
			}
			if !ok || !yield(v) {
				return nil
			}
		}
	}
}

// chunked partitions src by pulling up to ex.chunk elements at a time, or
// fewer while a Limit budget is registered.
func chunked[T any](src Source[T]) parts[T] {
	return func(ctx context.Context, ex *executor, yield func(seq[T]) bool) error {
		for {
			size := ex.chunk
			if b, ok := ex.budget(); ok {
				size = int(max(1, min(int64(size), b)))
			}

			chunk := make([]T, 0, size)
			exhausted := false
			for len(chunk) < size {
				if err := ctx.Err(); err != nil {
					return err
				}
				v, ok, err := src.Next(ctx)
				if err != nil {
					return err
				}
				if !ok {
					exhausted = true
					break
				}
				chunk = append(chunk, v)
			}
			if len(chunk) > 0 && !yield(sliceSeq(chunk)) {
				return nil
			}
			if exhausted {
				return nil
			}
		}
	}
}

// sourcePlan evaluates src sequentially and chunks it for concurrent evaluation.
func sourcePlan[T any](src Source[T]) plan[T] {
	return plan[T]{seq: pull(src), parts: chunked(src)}
}

// materialize collects a partition into a slice.
func materialize[T any](ctx context.Context, part seq[T]) ([]T, error) {
	var out []T
	err := part(ctx, func(v T) bool {
		out = append(out, v)
		return true
	})
	return out, err
}
