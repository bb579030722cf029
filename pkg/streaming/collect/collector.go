package collect

import (
	"fmt"

	"github.com/vnykmshr/seqflow/pkg/common/validation"
)

// Kind tags the built-in collector a Collector was configured as.
type Kind int

const (
	KindCustom Kind = iota
	KindList
	KindSet
	KindCollection
	KindJoining
	KindGrouping
	KindPartitioning
	KindMapping
	KindSummarizing
	KindCounting
	KindSumming
	KindReducing
	KindMinMax
	KindTransform
)

var kindNames = map[Kind]string{
	KindCustom:       "custom",
	KindList:         "toList",
	KindSet:          "toSet",
	KindCollection:   "toCollection",
	KindJoining:      "joining",
	KindGrouping:     "groupingBy",
	KindPartitioning: "partitioningBy",
	KindMapping:      "toMap",
	KindSummarizing:  "summarizing",
	KindCounting:     "counting",
	KindSumming:      "summing",
	KindReducing:     "reducing",
	KindMinMax:       "minMax",
	KindTransform:    "mapping",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Collector describes a mutable reduction of elements of type T into an
// intermediate container A, finished into a result R.
//
// Supplier creates an empty container. Accumulator folds one element into a
// container and returns it (containers that are values, such as slices, are
// replaced rather than mutated). Combiner merges the container of a later
// partition into that of an earlier one; it is only invoked during concurrent
// evaluation and may be nil, in which case the engine accumulates every
// element on a single goroutine. Finisher converts the final container into
// the result; nil is only valid when A and R are the same type.
type Collector[T, A, R any] struct {
	Kind        Kind
	Supplier    func() A
	Accumulator func(A, T) (A, error)
	Combiner    func(A, A) (A, error)
	Finisher    func(A) R

	// err is set by constructors given a nil function or an invalid
	// downstream collector, and reported by Validate.
	err error
}

// Of builds a custom collector. A nil finisher requires A and R to be identical.
func Of[T, A, R any](supplier func() A, accumulator func(A, T) (A, error), combiner func(A, A) (A, error), finisher func(A) R) Collector[T, A, R] {
	return Collector[T, A, R]{
		Kind:        KindCustom,
		Supplier:    supplier,
		Accumulator: accumulator,
		Combiner:    combiner,
		Finisher:    finisher,
	}
}

// Validate reports a ValidationError if a required function is missing.
func (c Collector[T, A, R]) Validate() error {
	if c.err != nil {
		return c.err
	}
	if err := validation.ValidateFunc("collect", "supplier", c.Supplier); err != nil {
		return err
	}
	if err := validation.ValidateFunc("collect", "accumulator", c.Accumulator); err != nil {
		return err
	}
	if c.Finisher == nil {
		if _, ok := any((*A)(nil)).(*R); !ok {
			return validation.ValidateFunc("collect", "finisher", c.Finisher)
		}
	}
	return nil
}

// check records a ValidationError if fn is nil, keeping the first one.
func (c Collector[T, A, R]) check(name string, fn interface{}) Collector[T, A, R] {
	return c.inherit(validation.ValidateFunc("collect", name, fn))
}

func (c Collector[T, A, R]) inherit(err error) Collector[T, A, R] {
	if c.err == nil {
		c.err = err
	}
	return c
}

// Finish applies the finisher, or returns the container itself when there is none.
func (c Collector[T, A, R]) Finish(acc A) R {
	if c.Finisher != nil {
		return c.Finisher(acc)
	}
	if r, ok := any(&acc).(*R); ok {
		return *r
	}
	var zero R
	return zero
}

// Collect runs the collector sequentially over a slice. It is the reference
// semantics the stream engine reproduces for any evaluation mode.
func Collect[T, A, R any](c Collector[T, A, R], elements []T) (R, error) {
	var zero R
	if err := c.Validate(); err != nil {
		return zero, err
	}

	acc := c.Supplier()
	for _, e := range elements {
		var err error
		if acc, err = c.Accumulator(acc, e); err != nil {
			return zero, err
		}
	}
	return c.Finish(acc), nil
}
