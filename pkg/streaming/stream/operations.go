package stream

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/emirpasic/gods/sets/hashset"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
)

func (s *stream[T]) Filter(predicate func(T) bool) Stream[T] {
	if err := validation.ValidateFunc("stream", "predicate", predicate); err != nil {
		return reject[T, T](s, "filter", err)
	}
	return derive(s, "filter", stateless(s.plan, func(up seq[T]) seq[T] {
		return func(ctx context.Context, yield func(T) bool) error {
			return up(ctx, func(v T) bool {
				return !predicate(v) || yield(v)
			})
		}
	}))
}

func (s *stream[T]) Map(mapper func(T) T) Stream[T] {
	return Map(Stream[T](s), mapper)
}

// Map returns a stream of mapper applied to each element of s.
func Map[T, R any](s Stream[T], mapper func(T) R) Stream[R] {
	src := s.self()
	if err := validation.ValidateFunc("stream", "mapper", mapper); err != nil {
		return reject[T, R](src, "map", err)
	}
	return derive(src, "map", stateless(src.plan, func(up seq[T]) seq[R] {
		return func(ctx context.Context, yield func(R) bool) error {
			return up(ctx, func(v T) bool {
				return yield(mapper(v))
			})
		}
	}))
}

func (s *stream[T]) FlatMap(mapper func(T) Stream[T]) Stream[T] {
	return FlatMap(Stream[T](s), mapper)
}

// FlatMap returns a stream of the elements of the streams mapper produces
// for each element of s, concatenated in order. Each produced stream is
// consumed and closed; a nil stream contributes nothing.
func FlatMap[T, R any](s Stream[T], mapper func(T) Stream[R]) Stream[R] {
	src := s.self()
	if err := validation.ValidateFunc("stream", "mapper", mapper); err != nil {
		return reject[T, R](src, "flatMap", err)
	}
	return expand(derive(src, "flatMap", stateless(src.plan, func(up seq[T]) seq[R] {
		return func(ctx context.Context, yield func(R) bool) error {
			var innerErr error
			err := up(ctx, func(v T) bool {
				sub := mapper(v)
				if sub == nil {
					return true
				}
				more, err := sub.self().drain(ctx, yield)
				if err != nil {
					innerErr = err
					return false
				}
				return more
			})
			if innerErr != nil {
				return fmt.Errorf("stream flatMap: %w", innerErr)
			}
			return err
		}
	})))
}

// FlatMapSlice is FlatMap for mappers that return their elements as a slice.
func FlatMapSlice[T, R any](s Stream[T], mapper func(T) []R) Stream[R] {
	src := s.self()
	if err := validation.ValidateFunc("stream", "mapper", mapper); err != nil {
		return reject[T, R](src, "flatMap", err)
	}
	return expand(derive(src, "flatMap", stateless(src.plan, func(up seq[T]) seq[R] {
		return func(ctx context.Context, yield func(R) bool) error {
			return up(ctx, func(v T) bool {
				for _, r := range mapper(v) {
					if !yield(r) {
						return false
					}
				}
				return true
			})
		}
	})))
}

func expand[T any](s *stream[T]) *stream[T] {
	s.fanout = max(s.fanout, fanoutExpanding)
	return s
}

func (s *stream[T]) Peek(action func(T)) Stream[T] {
	if err := validation.ValidateFunc("stream", "action", action); err != nil {
		return reject[T, T](s, "peek", err)
	}
	return derive(s, "peek", stateless(s.plan, func(up seq[T]) seq[T] {
		return func(ctx context.Context, yield func(T) bool) error {
			return up(ctx, func(v T) bool {
				action(v)
				return yield(v)
			})
		}
	}))
}

func (s *stream[T]) Limit(n int64) Stream[T] {
	if err := validation.ValidateNonNegative("stream", "limit", n); err != nil {
		return reject[T, T](s, "limit", err)
	}
	v := derive(s, fmt.Sprintf("limit(%d)", n), barrier(s.plan, func(up seq[T]) seq[T] {
		return func(ctx context.Context, yield func(T) bool) error {
			if n == 0 {
				return nil
			}
			var taken int64
			return up(ctx, func(v T) bool {
				taken++
				return yield(v) && taken < n
			})
		}
	}, func(up parts[T]) parts[T] {
		return limitParts(up, n, s.fanout)
	}))
	v.infinite = false
	return v
}

func (s *stream[T]) Skip(n int64) Stream[T] {
	if err := validation.ValidateNonNegative("stream", "skip", n); err != nil {
		return reject[T, T](s, "skip", err)
	}
	return derive(s, fmt.Sprintf("skip(%d)", n), barrier(s.plan, func(up seq[T]) seq[T] {
		return func(ctx context.Context, yield func(T) bool) error {
			var skipped int64
			return up(ctx, func(v T) bool {
				if skipped < n {
					skipped++
					return true
				}
				return yield(v)
			})
		}
	}, func(up parts[T]) parts[T] {
		return skipParts(up, n)
	}))
}

func (s *stream[T]) Distinct() Stream[T] {
	if t := reflect.TypeFor[T](); !t.Comparable() {
		return reject[T, T](s, "distinct", sferrors.NewOperationError("stream", "Distinct", sferrors.ErrUnsupportedOperation).
			WithContext(t.String()+" is not comparable; use DistinctBy"))
	}
	return distinctBy(s, "distinct", func(v T) interface{} { return v })
}

// DistinctBy returns a stream keeping the first element seen for each key.
func DistinctBy[T any, K comparable](s Stream[T], key func(T) K) Stream[T] {
	src := s.self()
	if err := validation.ValidateFunc("stream", "key", key); err != nil {
		return reject[T, T](src, "distinctBy", err)
	}
	return distinctBy(src, "distinctBy", func(v T) interface{} { return key(v) })
}

func distinctBy[T any](s *stream[T], stage string, key func(T) interface{}) *stream[T] {
	return derive(s, stage, barrier(s.plan, func(up seq[T]) seq[T] {
		return func(ctx context.Context, yield func(T) bool) error {
			seen := hashset.New()
			var keyErr error
			err := up(ctx, func(v T) bool {
				var added bool
				if added, keyErr = addKey(seen, key(v)); keyErr != nil {
					return false
				}
				return !added || yield(v)
			})
			if keyErr != nil {
				return keyErr
			}
			return err
		}
	}, func(up parts[T]) parts[T] {
		return distinctParts(up, key)
	}))
}

// addKey adds k to seen and reports whether it was new. Interface values
// holding incomparable dynamic types cannot be hashed.
func addKey(seen *hashset.Set, k interface{}) (added bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stream distinct: key of type %T: %w", k, sferrors.ErrUnsupportedOperation)
		}
	}()
	if seen.Contains(k) {
		return false, nil
	}
	seen.Add(k)
	return true, nil
}

func (s *stream[T]) Sorted(compare func(a, b T) int) Stream[T] {
	if err := validation.ValidateFunc("stream", "compare", compare); err != nil {
		return reject[T, T](s, "sorted", err)
	}
	if s.infinite {
		return reject[T, T](s, "sorted", sferrors.NewOperationError("stream", "Sorted", sferrors.ErrUnsupportedOperation).
			WithContext("upstream is infinite; add Limit first"))
	}
	return sorted(s, "sorted", compare)
}

// SortedNatural returns a stream of the elements of s in ascending natural
// order, keeping equal elements in encounter order.
func SortedNatural[T cmp.Ordered](s Stream[T]) Stream[T] {
	src := s.self()
	if src.infinite {
		return reject[T, T](src, "sorted", sferrors.NewOperationError("stream", "SortedNatural", sferrors.ErrUnsupportedOperation).
			WithContext("upstream is infinite; add Limit first"))
	}
	return sorted(src, "sorted", cmp.Compare[T])
}

func sorted[T any](s *stream[T], stage string, compare func(a, b T) int) *stream[T] {
	v := derive(s, stage, barrier(s.plan, func(up seq[T]) seq[T] {
		return func(ctx context.Context, yield func(T) bool) error {
			all, err := materialize(ctx, up)
			if err != nil {
				return err
			}
			slices.SortStableFunc(all, compare)
			return sliceSeq(all)(ctx, yield)
		}
	}, func(up parts[T]) parts[T] {
		return sortedParts(up, compare)
	}))
	v.fanout = fanoutDetached
	return v
}
