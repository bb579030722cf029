// Package metrics provides Prometheus instrumentation for seqflow components.
//
// Two families of metrics are exported:
//   - Pipelines: terminal operations evaluated, elements delivered, failures,
//     evaluation latency and partitions dispatched in concurrent mode.
//   - Worker pools: pool size, active workers, queued tasks and task outcomes.
//
// Pipelines are instrumented by setting stream.Config.Metrics:
//
//	reg := metrics.NewRegistry(prometheus.NewRegistry())
//	n, err := stream.FromSlice(words).
//		WithConfig(stream.Config{Name: "words", Metrics: reg}).
//		Count(ctx)
//
// Use a dedicated prometheus.Registry per test or component to avoid
// duplicate-registration panics; DefaultRegistry is bound to
// prometheus.DefaultRegisterer.
package metrics
