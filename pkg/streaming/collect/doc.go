/*
Package collect provides mutable reduction descriptors for streams.

A Collector bundles a supplier of an empty container, an accumulator that
folds one element into it, an optional combiner that merges containers built
by different workers, and a finisher that converts the container into the
result. The stream package drives collectors for both sequential and
concurrent evaluation; Collect in this package runs one over a plain slice.

Built-in collectors:

	collect.ToList[string]()
	collect.Joining(", ")
	collect.GroupingByWith(func(w string) int { return len(w) }, collect.Counting[string]())
	collect.PartitioningBy(func(n int) bool { return n%2 == 0 })
	collect.ToMap(keyFn, valueFn)
	collect.Summarizing(func(n int) int { return n })

Ordered targets come from github.com/emirpasic/gods:

	collect.ToCollection[string](func() *treeset.Set { return treeset.NewWithStringComparator() })
	collect.ToOrderedMap(keyFn, valueFn, nil, func() maps.Map { return treemap.NewWithStringComparator() })

Go map iteration order is unspecified, so GroupingBy and ToMap results carry
no order; use ToOrderedMap when order matters.
*/
package collect
