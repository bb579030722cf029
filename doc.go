/*
Package seqflow provides lazy, composable data pipelines for Go with optional
concurrent evaluation.

Streaming (pkg/streaming):
  - stream: Sources, intermediate stages and terminal operations
  - collect: Reusable collectors for grouping, partitioning, joining and summarizing

Supporting packages:
  - pkg/scheduling/workerpool: Worker pool that evaluates parallel partitions
  - pkg/config: Engine defaults from YAML and SEQFLOW_* environment variables
  - pkg/metrics: Prometheus metrics for pipeline evaluation

Example usage:

	import (
		"github.com/vnykmshr/seqflow/pkg/streaming/collect"
		"github.com/vnykmshr/seqflow/pkg/streaming/stream"
	)

	words := stream.Of("regular", "expression", "as", "a", "string")
	byLength, err := stream.Collect(ctx, words.Parallel(),
		collect.GroupingByWith(func(w string) int { return len(w) }, collect.Counting[string]()))

A pipeline runs once: the first terminal operation consumes it and releases
its source.
*/
package seqflow
