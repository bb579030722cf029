package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Example_basicUsage demonstrates recording pipeline metrics on a private registry.
func Example_basicUsage() {
	registry := NewRegistry(prometheus.NewRegistry())

	registry.StreamOperations.WithLabelValues("count", "words").Inc()
	registry.StreamItems.WithLabelValues("count", "words").Add(7)

	fmt.Println(testutil.ToFloat64(registry.StreamItems.WithLabelValues("count", "words")))
	// Output: 7
}

// Example_customNamespace demonstrates overriding the namespace and adding constant labels.
func Example_customNamespace() {
	reg := prometheus.NewRegistry()
	registry := New(Config{
		Enabled:   true,
		Registry:  reg,
		Namespace: "etl",
		Labels:    prometheus.Labels{"team": "data"},
	})

	registry.StreamErrors.WithLabelValues("collect", "import").Inc()

	families, _ := reg.Gather()
	for _, mf := range families {
		if mf.GetName() != "etl_stream_errors_total" {
			continue
		}
		for _, lp := range mf.GetMetric()[0].GetLabel() {
			if lp.GetName() == "team" {
				fmt.Println(mf.GetName(), lp.GetValue())
			}
		}
	}
	// Output: etl_stream_errors_total data
}

// Example_disabled shows that a disabled config registers nothing.
func Example_disabled() {
	reg := prometheus.NewRegistry()
	registry := New(Config{Enabled: false, Registry: reg})

	families, _ := reg.Gather()
	fmt.Println(registry == nil, len(families))
	// Output: true 0
}
