package collect

import (
	"cmp"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/maps"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/treeset"

	"github.com/vnykmshr/seqflow/internal/testutil"
	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
)

var words = []string{"the", "quick", "brown", "fox", "jumps", "over", "the", "lazy", "dog"}

// collectSplit runs c over elements split into two halves joined by the
// combiner, as a concurrent evaluation would.
func collectSplit[T, A, R any](t *testing.T, c Collector[T, A, R], elements []T) R {
	t.Helper()
	mid := len(elements) / 2
	left := c.Supplier()
	right := c.Supplier()
	var err error
	for _, e := range elements[:mid] {
		left, err = c.Accumulator(left, e)
		testutil.AssertNoError(t, err)
	}
	for _, e := range elements[mid:] {
		right, err = c.Accumulator(right, e)
		testutil.AssertNoError(t, err)
	}
	merged, err := c.Combiner(left, right)
	testutil.AssertNoError(t, err)
	return c.Finish(merged)
}

func TestToList(t *testing.T) {
	got, err := Collect(ToList[string](), words)
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, got, words)

	empty, err := Collect(ToList[int](), nil)
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, empty, []int{})

	testutil.AssertDiff(t, collectSplit(t, ToList[string](), words), words)
}

func TestToSet(t *testing.T) {
	got, err := Collect(ToSet[string](), words)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(got), 8)
	if _, ok := got["the"]; !ok {
		t.Error("expected set to contain \"the\"")
	}
	testutil.AssertDiff(t, collectSplit(t, ToSet[string](), words), got)
}

func TestToCollection(t *testing.T) {
	c := ToCollection[string](func() *treeset.Set { return treeset.NewWithStringComparator() })
	got, err := Collect(c, words)
	testutil.AssertNoError(t, err)

	want := []interface{}{"brown", "dog", "fox", "jumps", "lazy", "over", "quick", "the"}
	testutil.AssertDiff(t, got.Values(), want)
	testutil.AssertDiff(t, collectSplit(t, c, words).Values(), want)

	list := ToCollection[int](func() *arraylist.List { return arraylist.New() })
	l, err := Collect(list, []int{3, 1, 2})
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, l.Values(), []interface{}{3, 1, 2})
}

func TestJoining(t *testing.T) {
	got, err := Collect(Joining(", "), []string{"a", "b", "c"})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, "a, b, c")

	got, err = Collect(JoiningWith("|", "[", "]"), []string{"a", "b"})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, "[a|b]")

	got, err = Collect(JoiningWith(",", "<", ">"), nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, "<>")

	testutil.AssertEqual(t, collectSplit(t, Joining(" "), words), strings.Join(words, " "))
}

func TestGroupingBy(t *testing.T) {
	byLen := func(s string) int { return len(s) }

	got, err := Collect(GroupingBy(byLen), words)
	testutil.AssertNoError(t, err)
	want := map[int][]string{
		3: {"the", "fox", "the", "dog"},
		4: {"over", "lazy"},
		5: {"quick", "brown", "jumps"},
	}
	testutil.AssertDiff(t, got, want)
	testutil.AssertDiff(t, collectSplit(t, GroupingBy(byLen), words), want)

	counts, err := Collect(GroupingByWith(byLen, Counting[string]()), words)
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, counts, map[int]int64{3: 4, 4: 2, 5: 3})
}

func TestGroupingByWithoutCombiner(t *testing.T) {
	downstream := Of[int, []int, []int](
		func() []int { return nil },
		func(acc []int, v int) ([]int, error) { return append(acc, v), nil },
		nil,
		nil,
	)
	c := GroupingByWith(func(n int) bool { return n > 0 }, downstream)
	if c.Combiner != nil {
		t.Error("grouping over a downstream without combiner must not combine")
	}
	got, err := Collect(c, []int{1, -1, 2})
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, got, map[bool][]int{true: {1, 2}, false: {-1}})
}

func TestPartitioningBy(t *testing.T) {
	even := func(n int) bool { return n%2 == 0 }

	got, err := Collect(PartitioningBy(even), []int{1, 2, 3, 4, 5})
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, got, map[bool][]int{true: {2, 4}, false: {1, 3, 5}})

	onlyOdd, err := Collect(PartitioningByWith(even, Counting[int]()), []int{1, 3})
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, onlyOdd, map[bool]int64{true: 0, false: 2})

	none, err := Collect(PartitioningBy(even), nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(none), 2)
}

func TestToMap(t *testing.T) {
	type dish struct {
		name string
		cal  int
	}
	menu := []dish{{"pork", 800}, {"beef", 700}, {"rice", 350}}

	got, err := Collect(ToMap(func(d dish) string { return d.name }, func(d dish) int { return d.cal }), menu)
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, got, map[string]int{"pork": 800, "beef": 700, "rice": 350})

	_, err = Collect(ToMap(func(s string) int { return len(s) }, func(s string) string { return s }), words)
	testutil.AssertErrorIs(t, err, sferrors.ErrDuplicateKey)
	var dup *sferrors.DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateKeyError, got %T", err)
	}
	testutil.AssertEqual(t, dup.Key, any(5))

	merged, err := Collect(
		ToMapMerge(func(s string) int { return len(s) }, func(s string) string { return s },
			func(a, b string) string { return a + "+" + b }),
		[]string{"ab", "cd", "e"},
	)
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, merged, map[int]string{2: "ab+cd", 1: "e"})
}

func TestToMapCombinerDetectsCrossPartitionDuplicates(t *testing.T) {
	c := ToMap(func(s string) string { return s }, func(s string) int { return len(s) })
	left, _ := c.Accumulator(c.Supplier(), "a")
	right, _ := c.Accumulator(c.Supplier(), "a")
	_, err := c.Combiner(left, right)
	testutil.AssertErrorIs(t, err, sferrors.ErrDuplicateKey)
}

func TestToOrderedMap(t *testing.T) {
	key := func(s string) string { return s }
	length := func(s string) int { return len(s) }
	keep := func(a, _ int) int { return a }

	sorted := ToOrderedMap(key, length, keep, func() maps.Map { return treemap.NewWithStringComparator() })
	got, err := Collect(sorted, words)
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, got.Keys(), []interface{}{"brown", "dog", "fox", "jumps", "lazy", "over", "quick", "the"})

	insertion := ToOrderedMap(key, length, keep, func() maps.Map { return linkedhashmap.New() })
	got = collectSplit(t, insertion, words)
	testutil.AssertDiff(t, got.Keys(), []interface{}{"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog"})

	strict := ToOrderedMap(key, length, nil, func() maps.Map { return linkedhashmap.New() })
	_, err = Collect(strict, words)
	testutil.AssertErrorIs(t, err, sferrors.ErrDuplicateKey)
}

func TestSummarizing(t *testing.T) {
	s, err := Collect(Summarizing(func(n int) int { return n }), []int{4, -2, 7, 1})
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, s, Summary[int]{Count: 4, Sum: 10, Min: -2, Max: 7})
	testutil.AssertEqual(t, s.Average(), 2.5)

	testutil.AssertDiff(t, collectSplit(t, Summarizing(func(n int) int { return n }), []int{4, -2, 7, 1}), s)

	empty, err := Collect(Summarizing(func(f float64) float64 { return f }), nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, empty.Count, int64(0))
	testutil.AssertEqual(t, empty.Average(), 0.0)

	avg, err := Collect(Averaging(func(s string) int { return len(s) }), []string{"ab", "abcd"})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, avg, 3.0)
}

func TestSummarizingWidensNarrowTypes(t *testing.T) {
	big := []int32{2e9, 2e9}
	s, err := Collect(SummarizingInt(func(n int32) int32 { return n }), big)
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, s, Summary[int64]{Count: 2, Sum: 4e9, Min: 2e9, Max: 2e9})
	testutil.AssertEqual(t, s.Average(), 2e9)
	testutil.AssertDiff(t, collectSplit(t, SummarizingInt(func(n int32) int32 { return n }), big), s)

	u, err := Collect(SummarizingUint(func(n uint8) uint8 { return n }), []uint8{200, 100})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, u.Sum, uint64(300))

	f, err := Collect(SummarizingFloat(func(n int16) int16 { return n }), []int16{32000, 32000, -1})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, f.Sum, 63999.0)
	testutil.AssertEqual(t, f.Min, -1.0)

	avg, err := Collect(Averaging(func(n int32) int32 { return n }), big)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, avg, 2e9)
}

func TestReducers(t *testing.T) {
	n, err := Collect(Counting[string](), words)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, int64(9))

	sum, err := Collect(Summing(func(s string) int { return len(s) }), words)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sum, 35)

	product, err := Collect(Reducing(1, func(a, b int) int { return a * b }), []int{1, 2, 3, 4})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, product, 24)
	testutil.AssertEqual(t, collectSplit(t, Reducing(1, func(a, b int) int { return a * b }), []int{1, 2, 3, 4}), 24)

	upper, err := Collect(Mapping(strings.ToUpper, Joining("")), []string{"a", "b"})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, upper, "AB")
}

func TestMinMaxBy(t *testing.T) {
	byLen := func(a, b string) int { return cmp.Compare(len(a), len(b)) }

	shortest, err := Collect(MinBy(byLen), words)
	testutil.AssertNoError(t, err)
	v, ok := shortest.Get()
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, v, "the")

	longest, err := Collect(MaxBy(byLen), words)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, longest.OrElse(""), "quick")
	testutil.AssertEqual(t, collectSplit(t, MaxBy(byLen), words).OrElse(""), "quick")

	none, err := Collect(MinBy(byLen), nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, none.IsPresent(), false)
	testutil.AssertEqual(t, none.OrElseGet(func() string { return "n/a" }), "n/a")
}

func TestOptionalChaining(t *testing.T) {
	byLen := func(a, b string) int { return cmp.Compare(len(a), len(b)) }
	longest, err := Collect(MaxBy(byLen), words)
	testutil.AssertNoError(t, err)

	n := MapOptional(longest, func(s string) int { return len(s) })
	testutil.AssertEqual(t, n.OrElse(0), 5)
	testutil.AssertEqual(t, MapOptional(None[string](), strings.ToUpper).IsPresent(), false)

	parse := func(s string) Optional[int] {
		v, err := strconv.Atoi(s)
		if err != nil {
			return None[int]()
		}
		return Some(v)
	}
	testutil.AssertEqual(t, FlatMapOptional(Some("42"), parse).OrElse(-1), 42)
	testutil.AssertEqual(t, FlatMapOptional(Some("x"), parse).IsPresent(), false)
	testutil.AssertEqual(t, FlatMapOptional(None[string](), parse).IsPresent(), false)

	long := func(s string) bool { return len(s) > 4 }
	testutil.AssertEqual(t, FilterOptional(longest, long).OrElse(""), "quick")
	testutil.AssertEqual(t, FilterOptional(Some("fox"), long).IsPresent(), false)

	name := "seqflow"
	testutil.AssertEqual(t, OfNullable(&name).OrElse(""), "seqflow")
	testutil.AssertEqual(t, OfNullable[string](nil).IsPresent(), false)
}

func TestCollectorValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Collector[int, []int, int]
		wantErr bool
	}{
		{
			name: "valid",
			c: Of(func() []int { return nil },
				func(a []int, v int) ([]int, error) { return append(a, v), nil },
				nil,
				func(a []int) int { return len(a) }),
		},
		{
			name:    "nil supplier",
			c:       Of[int, []int, int](nil, func(a []int, v int) ([]int, error) { return a, nil }, nil, func(a []int) int { return 0 }),
			wantErr: true,
		},
		{
			name:    "nil accumulator",
			c:       Of[int, []int, int](func() []int { return nil }, nil, nil, func(a []int) int { return 0 }),
			wantErr: true,
		},
		{
			name:    "nil finisher with differing types",
			c:       Of[int, []int, int](func() []int { return nil }, func(a []int, v int) ([]int, error) { return a, nil }, nil, nil),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				testutil.AssertErrorIs(t, err, sferrors.ErrInvalidArgument)
			} else {
				testutil.AssertNoError(t, err)
			}
		})
	}
}

func TestConstructorsRejectNilFunctions(t *testing.T) {
	tests := []struct {
		name     string
		validate func() error
	}{
		{"groupingBy", GroupingBy[string, int](nil).Validate},
		{"groupingBy bad downstream", GroupingByWith(strings.ToUpper, Summing[string, int](nil)).Validate},
		{"partitioningBy", PartitioningBy[string](nil).Validate},
		{"toMap key", ToMap[string, string](nil, strings.ToUpper).Validate},
		{"toMap value", ToMap[string, string, int](strings.ToUpper, nil).Validate},
		{"toOrderedMap", ToOrderedMap[string, string, int](strings.ToUpper, nil, nil, func() maps.Map { return treemap.NewWithStringComparator() }).Validate},
		{"summarizing", SummarizingInt[string, int](nil).Validate},
		{"averaging", Averaging[string, int](nil).Validate},
		{"mapping", Mapping[int, string](nil, ToList[string]()).Validate},
		{"reducing", Reducing[int](0, nil).Validate},
		{"minBy", MinBy[int](nil).Validate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertErrorIs(t, tt.validate(), sferrors.ErrInvalidArgument)
		})
	}

	_, err := Collect(GroupingBy[string, int](nil), words)
	testutil.AssertErrorIs(t, err, sferrors.ErrInvalidArgument)
	testutil.AssertNoError(t, ToMapMerge(strings.ToUpper, strings.ToLower, nil).Validate())
}

func TestCollectPropagatesAccumulatorError(t *testing.T) {
	boom := errors.New("boom")
	c := Of[int, int, int](
		func() int { return 0 },
		func(acc, v int) (int, error) {
			if v == 3 {
				return acc, boom
			}
			return acc + v, nil
		},
		nil, nil,
	)
	_, err := Collect(c, []int{1, 2, 3, 4})
	testutil.AssertErrorIs(t, err, boom)
}

func TestKindString(t *testing.T) {
	testutil.AssertEqual(t, KindGrouping.String(), "groupingBy")
	testutil.AssertEqual(t, Kind(99).String(), "Kind(99)")
	testutil.AssertEqual(t, ToList[int]().Kind, KindList)
	testutil.AssertEqual(t, Mapping(strconv.Itoa, Joining("")).Kind, KindTransform)
}
