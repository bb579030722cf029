package collect

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/maps"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
)

// Number is the set of element types Summing and Averaging accept.
type Number interface {
	Signed | Unsigned | Float
}

// Signed integer types, summarized by SummarizingInt.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned integer types, summarized by SummarizingUint.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Float types, summarized by SummarizingFloat.
type Float interface {
	~float32 | ~float64
}

// Wide is the set of 64-bit element types Summarizing accumulates without
// widening.
type Wide interface {
	~int | ~int64 | ~uint | ~uint64 | ~float64
}

// Container is a target that accepts elements one at a time, such as the
// sets and lists of github.com/emirpasic/gods.
type Container interface {
	Add(values ...interface{})
	Values() []interface{}
}

// ToList collects elements into a slice in encounter order.
func ToList[T any]() Collector[T, []T, []T] {
	return Collector[T, []T, []T]{
		Kind:     KindList,
		Supplier: func() []T { return nil },
		Accumulator: func(acc []T, v T) ([]T, error) {
			return append(acc, v), nil
		},
		Combiner: func(left, right []T) ([]T, error) {
			return append(left, right...), nil
		},
		Finisher: func(acc []T) []T {
			if acc == nil {
				return []T{}
			}
			return acc
		},
	}
}

// ToSet collects elements into a set.
func ToSet[T comparable]() Collector[T, map[T]struct{}, map[T]struct{}] {
	return Collector[T, map[T]struct{}, map[T]struct{}]{
		Kind:     KindSet,
		Supplier: func() map[T]struct{} { return make(map[T]struct{}) },
		Accumulator: func(acc map[T]struct{}, v T) (map[T]struct{}, error) {
			acc[v] = struct{}{}
			return acc, nil
		},
		Combiner: func(left, right map[T]struct{}) (map[T]struct{}, error) {
			for v := range right {
				left[v] = struct{}{}
			}
			return left, nil
		},
	}
}

// ToCollection collects elements into containers created by factory, for
// example treeset.NewWithStringComparator for a sorted set.
func ToCollection[T any, C Container](factory func() C) Collector[T, C, C] {
	return Collector[T, C, C]{
		Kind:     KindCollection,
		Supplier: factory,
		Accumulator: func(acc C, v T) (C, error) {
			acc.Add(v)
			return acc, nil
		},
		Combiner: func(left, right C) (C, error) {
			left.Add(right.Values()...)
			return left, nil
		},
	}
}

// Joining concatenates strings separated by sep.
func Joining(sep string) Collector[string, []string, string] {
	return JoiningWith(sep, "", "")
}

// JoiningWith concatenates strings separated by sep and wrapped in prefix and suffix.
func JoiningWith(sep, prefix, suffix string) Collector[string, []string, string] {
	list := ToList[string]()
	return Collector[string, []string, string]{
		Kind:        KindJoining,
		Supplier:    list.Supplier,
		Accumulator: list.Accumulator,
		Combiner:    list.Combiner,
		Finisher: func(parts []string) string {
			return prefix + strings.Join(parts, sep) + suffix
		},
	}
}

// GroupingBy groups elements into slices keyed by key.
func GroupingBy[T any, K comparable](key func(T) K) Collector[T, map[K][]T, map[K][]T] {
	return GroupingByWith(key, ToList[T]())
}

// GroupingByWith groups elements by key and reduces each group with downstream.
// Iteration order of the resulting map is unspecified.
func GroupingByWith[T any, K comparable, A, D any](key func(T) K, downstream Collector[T, A, D]) Collector[T, map[K]A, map[K]D] {
	c := Collector[T, map[K]A, map[K]D]{
		Kind:     KindGrouping,
		Supplier: func() map[K]A { return make(map[K]A) },
		Accumulator: func(acc map[K]A, v T) (map[K]A, error) {
			return accumulateInto(acc, key(v), v, downstream)
		},
		Finisher: func(acc map[K]A) map[K]D {
			out := make(map[K]D, len(acc))
			for k, a := range acc {
				out[k] = downstream.Finish(a)
			}
			return out
		},
	}
	if downstream.Combiner != nil {
		c.Combiner = func(left, right map[K]A) (map[K]A, error) {
			return combineGroups(left, right, downstream)
		}
	}
	return c.check("key", key).inherit(downstream.Validate())
}

// PartitioningBy splits elements into the true and false buckets of pred.
// Both keys are always present, even when a bucket is empty.
func PartitioningBy[T any](pred func(T) bool) Collector[T, map[bool][]T, map[bool][]T] {
	return PartitioningByWith(pred, ToList[T]())
}

// PartitioningByWith splits elements by pred and reduces each bucket with downstream.
func PartitioningByWith[T, A, D any](pred func(T) bool, downstream Collector[T, A, D]) Collector[T, map[bool]A, map[bool]D] {
	grouping := GroupingByWith(pred, downstream)
	grouping.err = nil
	grouping = grouping.check("predicate", pred).inherit(downstream.Validate())
	grouping.Kind = KindPartitioning
	grouping.Supplier = func() map[bool]A {
		return map[bool]A{
			false: downstream.Supplier(),
			true:  downstream.Supplier(),
		}
	}
	return grouping
}

func accumulateInto[T any, K comparable, A, D any](acc map[K]A, k K, v T, downstream Collector[T, A, D]) (map[K]A, error) {
	a, ok := acc[k]
	if !ok {
		a = downstream.Supplier()
	}
	a, err := downstream.Accumulator(a, v)
	if err != nil {
		return acc, err
	}
	acc[k] = a
	return acc, nil
}

func combineGroups[T any, K comparable, A, D any](left, right map[K]A, downstream Collector[T, A, D]) (map[K]A, error) {
	for k, r := range right {
		l, ok := left[k]
		if !ok {
			left[k] = r
			continue
		}
		merged, err := downstream.Combiner(l, r)
		if err != nil {
			return left, err
		}
		left[k] = merged
	}
	return left, nil
}

// ToMap collects elements into a map. Two elements mapping to the same key
// fail the collection with an error matching errors.ErrDuplicateKey.
func ToMap[T any, K comparable, V any](key func(T) K, value func(T) V) Collector[T, map[K]V, map[K]V] {
	return toMap(key, value, nil)
}

// ToMapMerge collects elements into a map, resolving key collisions with
// merge(existing, incoming).
func ToMapMerge[T any, K comparable, V any](key func(T) K, value func(T) V, merge func(existing, incoming V) V) Collector[T, map[K]V, map[K]V] {
	return toMap(key, value, merge)
}

func toMap[T any, K comparable, V any](key func(T) K, value func(T) V, merge func(V, V) V) Collector[T, map[K]V, map[K]V] {
	put := func(acc map[K]V, k K, v V) error {
		existing, ok := acc[k]
		if !ok {
			acc[k] = v
			return nil
		}
		if merge == nil {
			return fmt.Errorf("collect: %w", &sferrors.DuplicateKeyError{Key: k})
		}
		acc[k] = merge(existing, v)
		return nil
	}

	c := Collector[T, map[K]V, map[K]V]{
		Kind:     KindMapping,
		Supplier: func() map[K]V { return make(map[K]V) },
		Accumulator: func(acc map[K]V, t T) (map[K]V, error) {
			return acc, put(acc, key(t), value(t))
		},
		Combiner: func(left, right map[K]V) (map[K]V, error) {
			for k, v := range right {
				if err := put(left, k, v); err != nil {
					return left, err
				}
			}
			return left, nil
		},
	}
	return c.check("key", key).check("value", value)
}

// ToOrderedMap collects elements into a map created by supplier, such as a
// gods treemap or linkedhashmap, so the target decides iteration order.
// A nil merge makes key collisions fail with errors.ErrDuplicateKey.
func ToOrderedMap[T, K, V any](key func(T) K, value func(T) V, merge func(existing, incoming V) V, supplier func() maps.Map) Collector[T, maps.Map, maps.Map] {
	put := func(acc maps.Map, k interface{}, v interface{}) error {
		existing, ok := acc.Get(k)
		if !ok {
			acc.Put(k, v)
			return nil
		}
		if merge == nil {
			return fmt.Errorf("collect: %w", &sferrors.DuplicateKeyError{Key: k})
		}
		acc.Put(k, merge(existing.(V), v.(V)))
		return nil
	}

	c := Collector[T, maps.Map, maps.Map]{
		Kind:     KindMapping,
		Supplier: supplier,
		Accumulator: func(acc maps.Map, t T) (maps.Map, error) {
			return acc, put(acc, key(t), value(t))
		},
		Combiner: func(left, right maps.Map) (maps.Map, error) {
			for _, k := range right.Keys() {
				v, _ := right.Get(k)
				if err := put(left, k, v); err != nil {
					return left, err
				}
			}
			return left, nil
		},
	}
	return c.check("key", key).check("value", value)
}
