package stream

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/metrics"
)

// DefaultChunkSize is the number of elements pulled from a non-splittable
// source into one partition during concurrent evaluation.
const DefaultChunkSize = 1024

// Stream is a lazy sequence of elements. Intermediate operations return a new
// view sharing the same source; nothing is evaluated until a terminal
// operation runs. A pipeline can be evaluated at most once: the first terminal
// on any view derived from the same source consumes it, and every later
// terminal fails with errors.ErrAlreadyConsumed.
//
// Invalid stage arguments are recorded on the returned view. Err reports them
// immediately, derived views inherit them, and terminals return them without
// consuming the pipeline.
type Stream[T any] interface {
	// Intermediate operations

	// Filter keeps elements matching predicate.
	Filter(predicate func(T) bool) Stream[T]

	// Map replaces each element with mapper(element). Use the Map function to
	// change the element type.
	Map(mapper func(T) T) Stream[T]

	// FlatMap replaces each element with the elements of the stream mapper
	// returns, concatenated in order. A nil stream contributes nothing.
	FlatMap(mapper func(T) Stream[T]) Stream[T]

	// Limit truncates the stream to its first n elements.
	Limit(n int64) Stream[T]

	// Skip drops the first n elements.
	Skip(n int64) Stream[T]

	// Distinct drops elements equal to one seen earlier. T must be comparable
	// at runtime.
	Distinct() Stream[T]

	// Sorted orders elements by compare, keeping equal elements in encounter
	// order. It is rejected on an infinite stream not preceded by Limit.
	Sorted(compare func(a, b T) int) Stream[T]

	// Peek calls action on each element as it flows past.
	Peek(action func(T)) Stream[T]

	// Evaluation mode

	// Parallel evaluates the pipeline on a worker pool.
	Parallel() Stream[T]

	// Sequential evaluates the pipeline on the calling goroutine.
	Sequential() Stream[T]

	// Unordered lets ForEach deliver elements in any order under Parallel.
	Unordered() Stream[T]

	// WithConfig replaces the evaluation settings. Zero fields take defaults.
	WithConfig(config Config) Stream[T]

	// IsParallel reports whether terminals evaluate concurrently.
	IsParallel() bool

	// Terminal operations

	// ForEach calls action for every element. Under Parallel and Unordered,
	// action runs concurrently on the pool's workers.
	ForEach(ctx context.Context, action func(T)) error

	// ForEachOrdered calls action for every element in encounter order.
	ForEachOrdered(ctx context.Context, action func(T)) error

	// Count returns the number of elements.
	Count(ctx context.Context) (int64, error)

	// ReduceOptional folds elements with accumulator; false means the stream was empty.
	ReduceOptional(ctx context.Context, accumulator func(T, T) T) (T, bool, error)

	// Reduce folds elements with accumulator starting from identity.
	Reduce(ctx context.Context, identity T, accumulator func(T, T) T) (T, error)

	// FindFirst returns the first element in encounter order.
	FindFirst(ctx context.Context) (T, bool, error)

	// FindAny returns some element, not necessarily the first under Parallel.
	FindAny(ctx context.Context) (T, bool, error)

	// AllMatch reports whether every element satisfies predicate; true when empty.
	AllMatch(ctx context.Context, predicate func(T) bool) (bool, error)

	// AnyMatch reports whether some element satisfies predicate; false when empty.
	AnyMatch(ctx context.Context, predicate func(T) bool) (bool, error)

	// NoneMatch reports whether no element satisfies predicate; true when empty.
	NoneMatch(ctx context.Context, predicate func(T) bool) (bool, error)

	// ToSlice returns all elements in encounter order.
	ToSlice(ctx context.Context) ([]T, error)

	// Min returns the smallest element by compare; the first of equal minima wins.
	Min(ctx context.Context, compare func(a, b T) int) (T, bool, error)

	// Max returns the largest element by compare; the first of equal maxima wins.
	Max(ctx context.Context, compare func(a, b T) int) (T, bool, error)

	// Resource control

	// Close releases the source. Terminals close automatically.
	Close() error

	// IsClosed reports whether the source has been released.
	IsClosed() bool

	// Err returns the argument error recorded while building this view.
	Err() error

	self() *stream[T]
}

// Source is a pull-based producer of elements. Next returns false once the
// source is exhausted.
type Source[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// Config controls how a pipeline is evaluated.
type Config struct {
	// Name labels log entries and metrics.
	Name string

	// Workers is the pool size for concurrent evaluation. Defaults to GOMAXPROCS.
	Workers int

	// ChunkSize is the partition size for sources that cannot be split
	// directly. Defaults to DefaultChunkSize.
	ChunkSize int

	// Logger receives a debug entry per evaluation. Defaults to zap.L().
	Logger *zap.Logger

	// Metrics records evaluations when set, and instruments the worker pool.
	Metrics *metrics.Registry
}

// DefaultConfig returns the settings used by every new stream.
func DefaultConfig() Config {
	return Config{
		Name:      "stream",
		Workers:   runtime.GOMAXPROCS(0),
		ChunkSize: DefaultChunkSize,
	}
}

// Validate checks that the pool and partition sizes are usable.
func (c Config) Validate() error {
	if err := validation.ValidatePositive("stream", "Workers", c.Workers); err != nil {
		return err
	}
	return validation.ValidatePositive("stream", "ChunkSize", c.ChunkSize)
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = d.ChunkSize
	}
	return c
}

func (c Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.L()
}

// pipeline is the state shared by every view derived from one source.
type pipeline struct {
	id       uuid.UUID
	consumed atomic.Bool
	closed   atomic.Bool

	mu      sync.Mutex
	closers []func() error
}

func newPipeline(closers ...func() error) *pipeline {
	return &pipeline{id: uuid.New(), closers: closers}
}

// claim marks the pipeline consumed, failing if a terminal already ran or
// the pipeline was closed without being evaluated.
func (p *pipeline) claim() error {
	if p.consumed.Load() {
		return sferrors.ErrAlreadyConsumed
	}
	if p.closed.Load() {
		return fmt.Errorf("pipeline: %w", sferrors.ErrClosed)
	}
	if !p.consumed.CompareAndSwap(false, true) {
		return sferrors.ErrAlreadyConsumed
	}
	return nil
}

func (p *pipeline) close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	p.mu.Lock()
	closers := p.closers
	p.closers = nil
	p.mu.Unlock()

	var errs []error
	for _, c := range closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// mode is inherited by every view derived from a stream.
type mode struct {
	parallel  bool
	unordered bool
	config    Config
}

func (m mode) String() string {
	var b strings.Builder
	if m.parallel {
		b.WriteString("parallel")
	} else {
		b.WriteString("sequential")
	}
	if m.unordered {
		b.WriteString(",unordered")
	}
	return b.String()
}

// fanout relates the elements a source produces to the elements reaching
// the end of the stages built on it so far.
type fanout uint8

const (
	// fanoutNarrowing stages yield at most one element per source element.
	fanoutNarrowing fanout = iota
	// fanoutExpanding stages include a FlatMap.
	fanoutExpanding
	// fanoutDetached stages include a sort, which reads the whole upstream.
	fanoutDetached
)

// stream is the Stream implementation. Views are immutable; every operation
// returns a new one.
type stream[T any] struct {
	pipe     *pipeline
	plan     plan[T]
	mode     mode
	stages   []string
	infinite bool
	fanout   fanout
	err      error
}

func newStream[T any](p plan[T], infinite bool, closers ...func() error) *stream[T] {
	return &stream[T]{
		pipe:     newPipeline(closers...),
		plan:     p,
		mode:     mode{config: DefaultConfig()},
		infinite: infinite,
	}
}

// failed returns a stream carrying err. Terminals on it return err.
func failed[T any](err error) *stream[T] {
	return &stream[T]{
		pipe: newPipeline(),
		plan: emptyPlan[T](),
		mode: mode{config: DefaultConfig()},
		err:  err,
	}
}

// derive appends a stage to s, producing a view with element type R.
func derive[T, R any](s *stream[T], stage string, p plan[R]) *stream[R] {
	return &stream[R]{
		pipe:     s.pipe,
		plan:     p,
		mode:     s.mode,
		stages:   append(slices.Clip(s.stages), stage),
		infinite: s.infinite,
		fanout:   s.fanout,
		err:      s.err,
	}
}

// reject returns a view of s carrying err unless s already carries one.
func reject[T, R any](s *stream[T], stage string, err error) *stream[R] {
	v := derive(s, stage, emptyPlan[R]())
	if v.err == nil {
		v.err = err
	}
	return v
}

func (s *stream[T]) self() *stream[T] {
	return s
}

func (s *stream[T]) with(m mode) *stream[T] {
	v := *s
	v.mode = m
	return &v
}

func (s *stream[T]) Parallel() Stream[T] {
	m := s.mode
	m.parallel = true
	return s.with(m)
}

func (s *stream[T]) Sequential() Stream[T] {
	m := s.mode
	m.parallel = false
	return s.with(m)
}

func (s *stream[T]) Unordered() Stream[T] {
	m := s.mode
	m.unordered = true
	return s.with(m)
}

func (s *stream[T]) WithConfig(config Config) Stream[T] {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return reject[T, T](s, "withConfig", err)
	}
	m := s.mode
	m.config = config
	return s.with(m)
}

func (s *stream[T]) IsParallel() bool {
	return s.mode.parallel
}

func (s *stream[T]) Close() error {
	return s.pipe.close()
}

func (s *stream[T]) IsClosed() bool {
	return s.pipe.closed.Load()
}

func (s *stream[T]) Err() error {
	return s.err
}

// drain evaluates s sequentially into yield without logging, for use as a
// sub-stream of FlatMap. It reports whether yield asked for more elements.
func (s *stream[T]) drain(ctx context.Context, yield func(T) bool) (more bool, err error) {
	if s.err != nil {
		return false, s.err
	}
	if err := s.pipe.claim(); err != nil {
		return false, err
	}
	defer func() {
		if cerr := s.pipe.close(); err == nil {
			err = cerr
		}
	}()

	more = true
	err = s.plan.seq(ctx, func(v T) bool {
		more = yield(v)
		return more
	})
	return more, err
}
