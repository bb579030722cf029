package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"slices"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
)

// maxLineSize bounds a single line read by FromLines and FromFile.
const maxLineSize = 1 << 20

// Integer is the set of element types accepted by Range and RangeClosed.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// New creates a Stream over a custom source. The source is treated as
// infinite if it implements Infinite() bool and reports true; Sorted then
// requires a preceding Limit.
func New[T any](source Source[T]) Stream[T] {
	if err := validation.ValidateNotNil("stream", "source", source); err != nil {
		return failed[T](err)
	}
	infinite := false
	if inf, ok := source.(interface{ Infinite() bool }); ok {
		infinite = inf.Infinite()
	}
	return newStream(sourcePlan(source), infinite, source.Close)
}

// FromSlice creates a Stream over a copy of items, so later changes to items
// are not observed.
func FromSlice[T any](items []T) Stream[T] {
	return newStream(slicePlan(slices.Clone(items)), false)
}

// Of creates a Stream over the given values.
func Of[T any](values ...T) Stream[T] {
	return FromSlice(values)
}

// FromSliceRange creates a Stream over a copy of items[from:to].
func FromSliceRange[T any](items []T, from, to int) Stream[T] {
	if from < 0 || to > len(items) || from > to {
		return failed[T](sferrors.NewValidationError("stream", "range", fmt.Sprintf("[%d:%d]", from, to), "out of bounds").
			WithHint(fmt.Sprintf("need 0 <= from <= to <= %d", len(items))))
	}
	return FromSlice(items[from:to])
}

func slicePlan[T any](items []T) plan[T] {
	return plan[T]{
		seq: sliceSeq(items),
		parts: func(ctx context.Context, ex *executor, yield func(seq[T]) bool) error {
			size := ex.partitionSize(uint64(len(items)))
			for lo := 0; lo < len(items); lo += size {
				hi := min(lo+size, len(items))
				if !yield(sliceSeq(items[lo:hi:hi])) {
					return nil
				}
			}
			return nil
		},
	}
}

// Range creates a Stream of start, start+1, ..., end-1.
func Range[N Integer](start, end N) Stream[N] {
	if start >= end {
		return Empty[N]()
	}
	return newStream(rangePlan(start, end-1), false)
}

// RangeClosed creates a Stream of start, start+1, ..., last.
func RangeClosed[N Integer](start, last N) Stream[N] {
	if start > last {
		return Empty[N]()
	}
	return newStream(rangePlan(start, last), false)
}

func rangeSeq[N Integer](lo, hi N) seq[N] {
	return func(ctx context.Context, yield func(N) bool) error {
		for v := lo; ; v++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !yield(v) || v == hi {
				return nil
			}
		}
	}
}

func rangePlan[N Integer](lo, hi N) plan[N] {
	return plan[N]{
		seq: rangeSeq(lo, hi),
		parts: func(ctx context.Context, ex *executor, yield func(seq[N]) bool) error {
			span := uint64(hi) - uint64(lo)
			count := span
			if count < math.MaxUint64 {
				count++
			}
			step := uint64(ex.partitionSize(count))
			for from := lo; ; {
				to := hi
				if uint64(hi)-uint64(from) >= step {
					to = from + N(step-1)
				}
				if !yield(rangeSeq(from, to)) || to == hi {
					return nil
				}
				from = to + 1
			}
		},
	}
}

// Generate creates an infinite Stream calling supplier once per element pulled.
func Generate[T any](supplier func() T) Stream[T] {
	if err := validation.ValidateFunc("stream", "supplier", supplier); err != nil {
		return failed[T](err)
	}
	return newStream(sourcePlan[T](&generatorSource[T]{generate: supplier}), true)
}

// Iterate creates the infinite Stream seed, next(seed), next(next(seed)), ...
func Iterate[T any](seed T, next func(T) T) Stream[T] {
	if err := validation.ValidateFunc("stream", "next", next); err != nil {
		return failed[T](err)
	}
	return newStream(sourcePlan[T](&iterateSource[T]{current: seed, next: next}), true)
}

// FromChannel creates a Stream that ends when ch is closed.
func FromChannel[T any](ch <-chan T) Stream[T] {
	if ch == nil {
		return failed[T](sferrors.NewValidationError("stream", "channel", nil, "cannot be nil").
			WithHint("a nil channel never delivers"))
	}
	return newStream(sourcePlan[T](&channelSource[T]{ch: ch}), false)
}

// FromLines creates a Stream of the lines of r, without line terminators.
// If r is an io.Closer it is closed with the pipeline. Read failures match
// errors.ErrIOFailure.
func FromLines(r io.Reader) Stream[string] {
	if err := validation.ValidateNotNil("stream", "reader", r); err != nil {
		return failed[string](err)
	}
	src := &lineSource{scanner: newScanner(r)}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return newStream(sourcePlan[string](src), false, src.Close)
}

// FromFile creates a Stream of the lines of the named file. The file is
// opened on the first pull and closed with the pipeline.
func FromFile(path string) Stream[string] {
	src := &lineSource{path: path}
	return newStream(sourcePlan[string](src), false, src.Close)
}

// Split creates a Stream of the substrings of s separated by matches of re.
func Split(s string, re *regexp.Regexp) Stream[string] {
	if re == nil {
		return failed[string](sferrors.NewValidationError("stream", "pattern", nil, "cannot be nil"))
	}
	return FromSlice(re.Split(s, -1))
}

// Empty creates a Stream with no elements.
func Empty[T any]() Stream[T] {
	return newStream(emptyPlan[T](), false)
}

// Concat creates a Stream of the elements of a followed by those of b. Both
// inputs are consumed by the call and closed with the result. The result is
// parallel if either input is.
func Concat[T any](a, b Stream[T]) Stream[T] {
	if a == nil || b == nil {
		return failed[T](sferrors.NewValidationError("stream", "concat", nil, "cannot be nil"))
	}
	x, y := a.self(), b.self()
	if x.err != nil {
		return failed[T](x.err)
	}
	if y.err != nil {
		return failed[T](y.err)
	}
	if err := x.pipe.claim(); err != nil {
		return failed[T](fmt.Errorf("stream concat: %w", err))
	}
	if err := y.pipe.claim(); err != nil {
		_ = x.pipe.close()
		return failed[T](fmt.Errorf("stream concat: %w", err))
	}

	p := plan[T]{
		seq: func(ctx context.Context, yield func(T) bool) error {
			more := true
			err := x.plan.seq(ctx, func(v T) bool {
				more = yield(v)
				return more
			})
			if err != nil || !more {
				return err
			}
			return y.plan.seq(ctx, yield)
		},
		parts: func(ctx context.Context, ex *executor, yield func(seq[T]) bool) error {
			more := true
			err := x.plan.parts(ctx, ex, func(part seq[T]) bool {
				more = yield(part)
				return more
			})
			if err != nil || !more {
				return err
			}
			return y.plan.parts(ctx, ex, yield)
		},
	}

	out := newStream(p, x.infinite || y.infinite, x.pipe.close, y.pipe.close)
	out.mode = x.mode
	out.mode.parallel = x.mode.parallel || y.mode.parallel
	out.stages = []string{"concat"}
	out.fanout = max(x.fanout, y.fanout)
	return out
}

type generatorSource[T any] struct {
	generate func() T
}

func (s *generatorSource[T]) Next(ctx context.Context) (T, bool, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, false, err
	}
	return s.generate(), true, nil
}

func (s *generatorSource[T]) Close() error {
	return nil
}

type iterateSource[T any] struct {
	current T
	next    func(T) T
	started bool
}

func (s *iterateSource[T]) Next(ctx context.Context) (T, bool, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, false, err
	}
	if s.started {
		s.current = s.next(s.current)
	}
	s.started = true
	return s.current, true, nil
}

func (s *iterateSource[T]) Close() error {
	return nil
}

type channelSource[T any] struct {
	ch <-chan T
}

func (s *channelSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	select {
	case value, ok := <-s.ch:
		if !ok {
			return zero, false, nil
		}
		return value, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (s *channelSource[T]) Close() error {
	return nil
}

// lineSource reads lines from a reader, or from a file opened on first use.
type lineSource struct {
	path    string
	scanner *bufio.Scanner
	closer  io.Closer
	done    bool
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}

func (s *lineSource) Next(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if s.done {
		return "", false, nil
	}
	if s.scanner == nil {
		f, err := os.Open(s.path)
		if err != nil {
			s.done = true
			return "", false, &sferrors.IOError{Op: "open", Path: s.path, Err: err}
		}
		s.scanner = newScanner(f)
		s.closer = f
	}

	if s.scanner.Scan() {
		return s.scanner.Text(), true, nil
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		return "", false, &sferrors.IOError{Op: "read", Path: s.path, Err: err}
	}
	return "", false, nil
}

func (s *lineSource) Close() error {
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	if err := c.Close(); err != nil {
		return &sferrors.IOError{Op: "close", Path: s.path, Err: err}
	}
	return nil
}
