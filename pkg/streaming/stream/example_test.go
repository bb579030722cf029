package stream_test

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/emirpasic/gods/maps"
	"github.com/emirpasic/gods/maps/treemap"

	"github.com/vnykmshr/seqflow/pkg/streaming/collect"
	"github.com/vnykmshr/seqflow/pkg/streaming/stream"
)

func Example() {
	ctx := context.Background()

	result, err := stream.FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}).
		Filter(func(x int) bool { return x%2 == 0 }).
		Map(func(x int) int { return x * 2 }).
		Limit(3).
		ToSlice(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Result: %v\n", result)
	// Output: Result: [4 8 12]
}

// Example_wordLengthHistogram counts words by length in parallel. Each worker
// builds its own partial histogram and the partials are merged, so no state
// is shared between workers.
func Example_wordLengthHistogram() {
	text := "the quick brown fox jumps over the lazy dog while the cat sleeps"
	words := stream.Split(text, regexp.MustCompile(`\s+`)).
		WithConfig(stream.Config{Workers: 4, ChunkSize: 3}).
		Parallel()

	histogram, err := stream.Collect(context.Background(), words,
		collect.GroupingByWith(func(w string) int { return len(w) }, collect.Counting[string]()))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	lengths := make([]int, 0, len(histogram))
	for l := range histogram {
		lengths = append(lengths, l)
	}
	slices.Sort(lengths)
	for _, l := range lengths {
		fmt.Printf("%d: %d\n", l, histogram[l])
	}
	// Output:
	// 3: 6
	// 4: 2
	// 5: 4
	// 6: 1
}

func Example_infinite() {
	ctx := context.Background()

	squares, _ := stream.Map(stream.Iterate(1, func(n int) int { return n + 1 }),
		func(n int) int { return n * n }).
		Limit(5).
		ToSlice(ctx)
	fmt.Println(squares)

	fib, _ := stream.Map(
		stream.Iterate([2]int{0, 1}, func(p [2]int) [2]int { return [2]int{p[1], p[0] + p[1]} }),
		func(p [2]int) int { return p[0] }).
		Limit(10).
		ToSlice(ctx)
	fmt.Println(fib)
	// Output:
	// [1 4 9 16 25]
	// [0 1 1 2 3 5 8 13 21 34]
}

func Example_collectors() {
	type dish struct {
		name     string
		calories int
		veg      bool
	}
	menu := []dish{
		{"pork", 800, false}, {"beef", 700, false}, {"chicken", 400, false},
		{"fries", 530, true}, {"rice", 350, true}, {"fruit", 120, true},
		{"pizza", 550, true}, {"prawns", 300, false}, {"salmon", 450, false},
	}
	ctx := context.Background()

	names, _ := stream.Collect(ctx,
		stream.Map(stream.FromSlice(menu), func(d dish) string { return d.name }).Limit(4),
		collect.Joining(", "))
	fmt.Println(names)

	stats, _ := stream.Collect(ctx, stream.FromSlice(menu),
		collect.Summarizing(func(d dish) int { return d.calories }))
	fmt.Printf("count=%d sum=%d min=%d max=%d avg=%.2f\n", stats.Count, stats.Sum, stats.Min, stats.Max, stats.Average())

	byVeg, _ := stream.Collect(ctx, stream.FromSlice(menu),
		collect.PartitioningByWith(func(d dish) bool { return d.veg }, collect.Counting[dish]()))
	fmt.Printf("vegetarian=%d other=%d\n", byVeg[true], byVeg[false])

	sorted, _ := stream.Collect(ctx, stream.FromSlice(menu).Filter(func(d dish) bool { return d.calories > 500 }),
		collect.ToOrderedMap(
			func(d dish) string { return d.name },
			func(d dish) int { return d.calories },
			nil,
			func() maps.Map { return treemap.NewWithStringComparator() }))
	fmt.Println(sorted.Keys())
	// Output:
	// pork, beef, chicken, fries
	// count=9 sum=4200 min=120 max=800 avg=466.67
	// vegetarian=4 other=5
	// [beef fries pizza pork]
}

func Example_sorted() {
	cities := []string{"Shanghai", "Beijing", "Tianjin", "Shenzhen", "Beijing"}

	got, _ := stream.FromSlice(cities).
		Distinct().
		Sorted(func(a, b string) int {
			return cmp.Or(cmp.Compare(len(a), len(b)), strings.Compare(a, b))
		}).
		ToSlice(context.Background())
	fmt.Println(got)
	// Output: [Beijing Tianjin Shanghai Shenzhen]
}
