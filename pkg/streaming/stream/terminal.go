package stream

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/streaming/collect"
)

// evaluate runs one terminal operation: it consumes the pipeline, starts a
// worker pool when the view is parallel, and closes the source afterwards.
// run receives a nil executor in sequential mode.
func (s *stream[T]) evaluate(ctx context.Context, op string, run func(context.Context, *executor, plan[T]) error) (err error) {
	if s.err != nil {
		return s.err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.pipe.claim(); err != nil {
		return fmt.Errorf("stream %s: %w", op, err)
	}

	cfg := s.mode.config
	logger := cfg.logger().With(
		zap.Stringer("pipeline_id", s.pipe.id),
		zap.String("stream", cfg.Name),
	)
	logger.Debug("evaluating pipeline",
		zap.String("terminal", op),
		zap.Stringer("mode", s.mode),
		zap.Strings("stages", s.stages),
	)

	var ex *executor
	if s.mode.parallel {
		ex = newExecutor(cfg, logger)
	}

	var items atomic.Int64
	start := time.Now()
	defer func() {
		if ex != nil {
			ex.shutdown()
		}
		if cerr := s.pipe.close(); err == nil {
			err = cerr
		}
		record(cfg, logger, op, time.Since(start), items.Load(), ex, err)
	}()

	return run(ctx, ex, counted(s.plan, &items))
}

func record(cfg Config, logger *zap.Logger, op string, elapsed time.Duration, items int64, ex *executor, err error) {
	var partitions int64
	if ex != nil {
		partitions = ex.partitions.Load()
	}

	fields := []zap.Field{
		zap.String("terminal", op),
		zap.Int64("items", items),
		zap.Int64("partitions", partitions),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		logger.Debug("pipeline failed", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("pipeline evaluated", fields...)
	}

	reg := cfg.Metrics
	if reg == nil {
		return
	}
	reg.StreamOperations.WithLabelValues(op, cfg.Name).Inc()
	reg.StreamItems.WithLabelValues(op, cfg.Name).Add(float64(items))
	reg.StreamDuration.WithLabelValues(op, cfg.Name).Observe(elapsed.Seconds())
	if err != nil {
		reg.StreamErrors.WithLabelValues(op, cfg.Name).Inc()
	}
	if partitions > 0 {
		reg.StreamPartitions.WithLabelValues(cfg.Name).Add(float64(partitions))
	}
}

func (s *stream[T]) ForEach(ctx context.Context, action func(T)) error {
	if err := validation.ValidateFunc("stream", "action", action); err != nil {
		return err
	}
	if s.mode.parallel && !s.mode.unordered {
		return s.forEachOrdered(ctx, "forEach", action)
	}

	each := func(v T) bool {
		action(v)
		return true
	}
	return s.evaluate(ctx, "forEach", func(ctx context.Context, ex *executor, p plan[T]) error {
		if ex == nil {
			return p.seq(ctx, each)
		}
		return mapPartitions(ctx, ex, p.parts, func(ctx context.Context, part seq[T]) (struct{}, error) {
			return struct{}{}, part(ctx, each)
		}, func(struct{}) bool { return true })
	})
}

func (s *stream[T]) ForEachOrdered(ctx context.Context, action func(T)) error {
	if err := validation.ValidateFunc("stream", "action", action); err != nil {
		return err
	}
	return s.forEachOrdered(ctx, "forEachOrdered", action)
}

// forEachOrdered computes partitions concurrently but delivers their
// elements from the coordinator in partition order.
func (s *stream[T]) forEachOrdered(ctx context.Context, op string, action func(T)) error {
	return s.evaluate(ctx, op, func(ctx context.Context, ex *executor, p plan[T]) error {
		if ex == nil {
			return p.seq(ctx, func(v T) bool {
				action(v)
				return true
			})
		}
		return mapPartitions(ctx, ex, p.parts, materialize[T], func(chunk []T) bool {
			for _, v := range chunk {
				action(v)
			}
			return true
		})
	})
}

func (s *stream[T]) Count(ctx context.Context) (int64, error) {
	return collectAs(ctx, s, "count", collect.Counting[T]())
}

func (s *stream[T]) ReduceOptional(ctx context.Context, accumulator func(T, T) T) (T, bool, error) {
	var zero T
	if err := validation.ValidateFunc("stream", "accumulator", accumulator); err != nil {
		return zero, false, err
	}

	merge := func(acc collect.Optional[T], v T) collect.Optional[T] {
		if cur, ok := acc.Get(); ok {
			return collect.Some(accumulator(cur, v))
		}
		return collect.Some(v)
	}
	c := collect.Of[T, collect.Optional[T], collect.Optional[T]](
		collect.None[T],
		func(acc collect.Optional[T], v T) (collect.Optional[T], error) {
			return merge(acc, v), nil
		},
		func(left, right collect.Optional[T]) (collect.Optional[T], error) {
			if v, ok := right.Get(); ok {
				return merge(left, v), nil
			}
			return left, nil
		},
		nil,
	)

	res, err := collectAs(ctx, s, "reduce", c)
	if err != nil {
		return zero, false, err
	}
	v, ok := res.Get()
	return v, ok, nil
}

func (s *stream[T]) Reduce(ctx context.Context, identity T, accumulator func(T, T) T) (T, error) {
	if err := validation.ValidateFunc("stream", "accumulator", accumulator); err != nil {
		return identity, err
	}
	res, err := collectAs(ctx, s, "reduce", collect.Reducing(identity, accumulator))
	if err != nil {
		return identity, err
	}
	return res, nil
}

// ReduceTo folds the elements of s into a value of another type. Under
// Parallel each partition is folded from identity and the partial results are
// merged with combiner in encounter order, so identity must be neutral for
// combiner and the two functions must agree.
func ReduceTo[T, R any](ctx context.Context, s Stream[T], identity R, accumulator func(R, T) R, combiner func(R, R) R) (R, error) {
	if err := validation.ValidateFunc("stream", "accumulator", accumulator); err != nil {
		return identity, err
	}
	if err := validation.ValidateFunc("stream", "combiner", combiner); err != nil {
		return identity, err
	}
	c := collect.Of[T, R, R](
		func() R { return identity },
		func(acc R, v T) (R, error) { return accumulator(acc, v), nil },
		func(left, right R) (R, error) { return combiner(left, right), nil },
		nil,
	)
	res, err := collectAs(ctx, s.self(), "reduce", c)
	if err != nil {
		return identity, err
	}
	return res, nil
}

// Collect performs a mutable reduction of s with c. Under Parallel each
// partition is accumulated on a worker and the containers are merged with
// c.Combiner in encounter order; without a combiner every element is
// accumulated on the coordinating goroutine in encounter order.
func Collect[T, A, R any](ctx context.Context, s Stream[T], c collect.Collector[T, A, R]) (R, error) {
	return collectAs(ctx, s.self(), "collect", c)
}

func collectAs[T, A, R any](ctx context.Context, s *stream[T], op string, c collect.Collector[T, A, R]) (R, error) {
	var zero R
	if err := c.Validate(); err != nil {
		return zero, err
	}

	var acc A
	err := s.evaluate(ctx, op, func(ctx context.Context, ex *executor, p plan[T]) error {
		if ex == nil {
			var err error
			acc, err = accumulate(ctx, p.seq, c)
			return err
		}

		acc = c.Supplier()
		var accErr error
		if c.Combiner == nil {
			err := mapPartitions(ctx, ex, p.parts, materialize[T], func(chunk []T) bool {
				for _, v := range chunk {
					if acc, accErr = c.Accumulator(acc, v); accErr != nil {
						return false
					}
				}
				return true
			})
			if accErr != nil {
				return accErr
			}
			return err
		}

		err := mapPartitions(ctx, ex, p.parts, func(ctx context.Context, part seq[T]) (A, error) {
			return accumulate(ctx, part, c)
		}, func(partial A) bool {
			acc, accErr = c.Combiner(acc, partial)
			return accErr == nil
		})
		if accErr != nil {
			return accErr
		}
		return err
	})
	if err != nil {
		return zero, err
	}
	return c.Finish(acc), nil
}

// accumulate folds one sequence into a fresh container.
func accumulate[T, A, R any](ctx context.Context, part seq[T], c collect.Collector[T, A, R]) (A, error) {
	acc := c.Supplier()
	var accErr error
	err := part(ctx, func(v T) bool {
		acc, accErr = c.Accumulator(acc, v)
		return accErr == nil
	})
	if accErr != nil {
		return acc, accErr
	}
	return acc, err
}

func (s *stream[T]) FindFirst(ctx context.Context) (T, bool, error) {
	var found collect.Optional[T]
	err := s.evaluate(ctx, "findFirst", func(ctx context.Context, ex *executor, p plan[T]) error {
		if ex == nil {
			var err error
			found, err = first(ctx, p.seq, nil)
			return err
		}
		return mapPartitions(ctx, ex, p.parts, func(ctx context.Context, part seq[T]) (collect.Optional[T], error) {
			return first(ctx, part, nil)
		}, func(r collect.Optional[T]) bool {
			found = r
			return !r.IsPresent()
		})
	})
	return unwrap(found, err)
}

func (s *stream[T]) FindAny(ctx context.Context) (T, bool, error) {
	var found collect.Optional[T]
	err := s.evaluate(ctx, "findAny", func(ctx context.Context, ex *executor, p plan[T]) error {
		if ex == nil {
			var err error
			found, err = first(ctx, p.seq, nil)
			return err
		}
		return mapPartitions(ctx, ex, p.parts, func(ctx context.Context, part seq[T]) (collect.Optional[T], error) {
			r, err := first(ctx, part, ex)
			if r.IsPresent() {
				ex.stop.Store(true)
			}
			return r, err
		}, func(r collect.Optional[T]) bool {
			if r.IsPresent() && !found.IsPresent() {
				found = r
			}
			return !found.IsPresent()
		})
	})
	return unwrap(found, err)
}

// first returns the first element of part. A non-nil executor lets another
// worker's answer end the search early.
func first[T any](ctx context.Context, part seq[T], ex *executor) (collect.Optional[T], error) {
	found := collect.None[T]()
	err := part(ctx, func(v T) bool {
		if ex != nil && ex.stopped() {
			return false
		}
		found = collect.Some(v)
		return false
	})
	return found, err
}

func unwrap[T any](o collect.Optional[T], err error) (T, bool, error) {
	if err != nil {
		var zero T
		return zero, false, err
	}
	v, ok := o.Get()
	return v, ok, nil
}

func (s *stream[T]) AnyMatch(ctx context.Context, predicate func(T) bool) (bool, error) {
	if err := validation.ValidateFunc("stream", "predicate", predicate); err != nil {
		return false, err
	}
	return s.match(ctx, "anyMatch", predicate)
}

func (s *stream[T]) AllMatch(ctx context.Context, predicate func(T) bool) (bool, error) {
	if err := validation.ValidateFunc("stream", "predicate", predicate); err != nil {
		return false, err
	}
	failing, err := s.match(ctx, "allMatch", func(v T) bool { return !predicate(v) })
	return !failing && err == nil, err
}

func (s *stream[T]) NoneMatch(ctx context.Context, predicate func(T) bool) (bool, error) {
	if err := validation.ValidateFunc("stream", "predicate", predicate); err != nil {
		return false, err
	}
	matched, err := s.match(ctx, "noneMatch", predicate)
	return !matched && err == nil, err
}

// match reports whether any element satisfies predicate, stopping at the
// first one found.
func (s *stream[T]) match(ctx context.Context, op string, predicate func(T) bool) (bool, error) {
	var matched bool
	err := s.evaluate(ctx, op, func(ctx context.Context, ex *executor, p plan[T]) error {
		if ex == nil {
			return p.seq(ctx, func(v T) bool {
				matched = predicate(v)
				return !matched
			})
		}
		return mapPartitions(ctx, ex, p.parts, func(ctx context.Context, part seq[T]) (bool, error) {
			var hit bool
			err := part(ctx, func(v T) bool {
				if ex.stopped() {
					return false
				}
				if predicate(v) {
					hit = true
					ex.stop.Store(true)
				}
				return !hit
			})
			return hit, err
		}, func(hit bool) bool {
			matched = matched || hit
			return !matched
		})
	})
	return matched, err
}

func (s *stream[T]) ToSlice(ctx context.Context) ([]T, error) {
	return collectAs(ctx, s, "toSlice", collect.ToList[T]())
}

func (s *stream[T]) Min(ctx context.Context, compare func(a, b T) int) (T, bool, error) {
	if err := validation.ValidateFunc("stream", "compare", compare); err != nil {
		var zero T
		return zero, false, err
	}
	res, err := collectAs(ctx, s, "min", collect.MinBy(compare))
	return unwrap(res, err)
}

func (s *stream[T]) Max(ctx context.Context, compare func(a, b T) int) (T, bool, error) {
	if err := validation.ValidateFunc("stream", "compare", compare); err != nil {
		var zero T
		return zero, false, err
	}
	res, err := collectAs(ctx, s, "max", collect.MaxBy(compare))
	return unwrap(res, err)
}
