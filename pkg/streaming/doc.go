/*
Package streaming groups the pipeline packages.

  - stream: Lazy sequences built from slices, ranges, generators, channels,
    readers and files, with sequential or parallel evaluation
  - collect: Collectors describing how elements fold into a result

Basic usage:

	total, err := stream.RangeClosed(1, 100).
		Filter(func(n int) bool { return n%2 == 0 }).
		Reduce(ctx, 0, func(a, b int) int { return a + b })

Every terminal operation takes a context and stops early when it is canceled.
*/
package streaming
