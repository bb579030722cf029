/*
Package stream provides lazy, single-use sequence pipelines.

A Stream is built from a source and a chain of intermediate stages. Nothing
is evaluated until a terminal operation runs; elements then flow through the
stages one at a time, and short-circuiting terminals stop pulling from the
source as soon as their answer is known. This makes infinite sources usable:

	squares, err := stream.Map(stream.Iterate(1, func(n int) int { return n + 1 }),
		func(n int) int { return n * n }).
		Limit(5).
		ToSlice(ctx) // [1 4 9 16 25]

Sources:

	stream.FromSlice(items)           // snapshot of items
	stream.Of(1, 2, 3)
	stream.Range(0, 10)               // 0..9
	stream.RangeClosed(1, 10)         // 1..10
	stream.Generate(rand.Int)         // infinite
	stream.Iterate(seed, next)        // infinite
	stream.FromChannel(ch)
	stream.FromLines(r)               // lines of an io.Reader
	stream.FromFile(path)             // lines of a file, opened lazily
	stream.Split(s, regexp.MustCompile(`\s+`))
	stream.Concat(a, b)
	stream.New(source)                // any Source[T]

Stages that keep the element type are methods (Filter, Map, FlatMap, Limit,
Skip, Distinct, Sorted, Peek). Stages that change it are functions: Map,
FlatMap, FlatMapSlice and DistinctBy. Collect and ReduceTo are terminal
functions for the same reason.

Single use:

Every view derived from one source shares its pipeline state. The first
terminal operation on any of them consumes the pipeline and closes the
source; later terminals return errors.ErrAlreadyConsumed.

Argument errors:

A stage given an invalid argument, such as a negative Limit or a nil
predicate, returns a view whose Err method reports an error matching
errors.ErrInvalidArgument. Sorted on an infinite stream without a preceding
Limit reports errors.ErrUnsupportedOperation. Terminal operations on such a
view return the error without evaluating anything.

Concurrent evaluation:

Parallel switches a pipeline to concurrent evaluation on a fixed-size worker
pool created for each terminal. Slices and ranges are split into partitions
directly; other sources are pulled Config.ChunkSize elements at a time.
Stateless stages run inside each partition. Limit, Skip, Distinct and Sorted
are barriers whose partial results are merged in partition order, so their
output matches sequential evaluation: Distinct keeps the first occurrence in
encounter order and Sorted is stable. ForEach delivers elements in encounter
order unless the pipeline is also Unordered, in which case the action runs
concurrently on the workers. Functions passed to a parallel pipeline must be
safe for concurrent use.

Configuration:

	s := stream.FromSlice(items).WithConfig(stream.Config{
		Name:    "orders",
		Workers: 8,
		Logger:  logger,
		Metrics: metrics.DefaultRegistry,
	}).Parallel()

Each evaluation is logged at debug level with its pipeline id, stages,
element count and duration, and recorded in the metrics registry when one is
configured.
*/
package stream
