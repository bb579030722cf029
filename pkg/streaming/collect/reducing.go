package collect

// Summary holds count, sum, min and max of a numeric stream.
// Min and Max are zero when Count is zero.
type Summary[N Number] struct {
	Count int64
	Sum   N
	Min   N
	Max   N
}

// Average returns Sum/Count, or 0 for an empty summary.
func (s Summary[N]) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Count)
}

func (s Summary[N]) add(v N) Summary[N] {
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Count++
	s.Sum += v
	return s
}

func (s Summary[N]) merge(o Summary[N]) Summary[N] {
	if o.Count == 0 {
		return s
	}
	if s.Count == 0 {
		return o
	}
	s.Count += o.Count
	s.Sum += o.Sum
	s.Min = min(s.Min, o.Min)
	s.Max = max(s.Max, o.Max)
	return s
}

// Summarizing computes a Summary over extract applied to each element. The
// sum is kept in the element type, so it is limited to 64-bit types; use
// SummarizingInt, SummarizingUint or SummarizingFloat for narrower ones.
func Summarizing[T any, N Wide](extract func(T) N) Collector[T, Summary[N], Summary[N]] {
	return summarizing[T, N, N](extract)
}

// SummarizingInt computes a Summary of signed values widened to int64.
func SummarizingInt[T any, N Signed](extract func(T) N) Collector[T, Summary[int64], Summary[int64]] {
	return summarizing[T, N, int64](extract)
}

// SummarizingUint computes a Summary of unsigned values widened to uint64.
func SummarizingUint[T any, N Unsigned](extract func(T) N) Collector[T, Summary[uint64], Summary[uint64]] {
	return summarizing[T, N, uint64](extract)
}

// SummarizingFloat computes a Summary of values widened to float64.
func SummarizingFloat[T any, N Number](extract func(T) N) Collector[T, Summary[float64], Summary[float64]] {
	return summarizing[T, N, float64](extract)
}

func summarizing[T any, N, S Number](extract func(T) N) Collector[T, Summary[S], Summary[S]] {
	c := Collector[T, Summary[S], Summary[S]]{
		Kind:     KindSummarizing,
		Supplier: func() Summary[S] { return Summary[S]{} },
		Accumulator: func(acc Summary[S], v T) (Summary[S], error) {
			return acc.add(S(extract(v))), nil
		},
		Combiner: func(left, right Summary[S]) (Summary[S], error) {
			return left.merge(right), nil
		},
	}
	return c.check("extract", extract)
}

// Averaging returns the arithmetic mean of extract over all elements,
// summed as float64.
func Averaging[T any, N Number](extract func(T) N) Collector[T, Summary[float64], float64] {
	s := SummarizingFloat(extract)
	return Collector[T, Summary[float64], float64]{
		Kind:        KindSummarizing,
		Supplier:    s.Supplier,
		Accumulator: s.Accumulator,
		Combiner:    s.Combiner,
		Finisher:    Summary[float64].Average,
	}.inherit(s.err)
}

// Counting counts elements.
func Counting[T any]() Collector[T, int64, int64] {
	return Collector[T, int64, int64]{
		Kind:     KindCounting,
		Supplier: func() int64 { return 0 },
		Accumulator: func(n int64, _ T) (int64, error) {
			return n + 1, nil
		},
		Combiner: func(a, b int64) (int64, error) {
			return a + b, nil
		},
	}
}

// Summing adds up extract over all elements.
func Summing[T any, N Number](extract func(T) N) Collector[T, N, N] {
	c := Collector[T, N, N]{
		Kind:     KindSumming,
		Supplier: func() N { return 0 },
		Accumulator: func(sum N, v T) (N, error) {
			return sum + extract(v), nil
		},
		Combiner: func(a, b N) (N, error) {
			return a + b, nil
		},
	}
	return c.check("extract", extract)
}

// Mapping applies mapper to each element before handing it to downstream.
func Mapping[T, U, A, R any](mapper func(T) U, downstream Collector[U, A, R]) Collector[T, A, R] {
	return Collector[T, A, R]{
		Kind:     KindTransform,
		Supplier: downstream.Supplier,
		Accumulator: func(acc A, v T) (A, error) {
			return downstream.Accumulator(acc, mapper(v))
		},
		Combiner: downstream.Combiner,
		Finisher: downstream.Finish,
	}.check("mapper", mapper).inherit(downstream.Validate())
}

// Reducing folds elements with op starting from identity. op must be
// associative and identity must be its neutral element.
func Reducing[T any](identity T, op func(T, T) T) Collector[T, T, T] {
	return Collector[T, T, T]{
		Kind:     KindReducing,
		Supplier: func() T { return identity },
		Accumulator: func(acc T, v T) (T, error) {
			return op(acc, v), nil
		},
		Combiner: func(a, b T) (T, error) {
			return op(a, b), nil
		},
	}.check("op", op)
}

// MinBy selects the smallest element according to cmp. The first of several
// equal minima wins.
func MinBy[T any](cmp func(a, b T) int) Collector[T, Optional[T], Optional[T]] {
	return selectBy(func(cur, v T) bool { return cmp(v, cur) < 0 }).check("comparator", cmp)
}

// MaxBy selects the largest element according to cmp. The first of several
// equal maxima wins.
func MaxBy[T any](cmp func(a, b T) int) Collector[T, Optional[T], Optional[T]] {
	return selectBy(func(cur, v T) bool { return cmp(v, cur) > 0 }).check("comparator", cmp)
}

func selectBy[T any](better func(cur, v T) bool) Collector[T, Optional[T], Optional[T]] {
	pick := func(cur Optional[T], v T) Optional[T] {
		if !cur.ok || better(cur.value, v) {
			return Some(v)
		}
		return cur
	}
	return Collector[T, Optional[T], Optional[T]]{
		Kind:     KindMinMax,
		Supplier: None[T],
		Accumulator: func(acc Optional[T], v T) (Optional[T], error) {
			return pick(acc, v), nil
		},
		Combiner: func(left, right Optional[T]) (Optional[T], error) {
			if !right.ok {
				return left, nil
			}
			return pick(left, right.value), nil
		},
	}
}
