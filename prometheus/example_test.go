package prometheus_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/abczzz13/ipmapper"
	ipmapperprom "github.com/abczzz13/ipmapper/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
)

var exampleBlocks = ipmapper.Entries{
	{Name: "campus", Value: "192.168.40.0/24"},
	{Name: "annex", Value: "192.168.40.0/28"},
}

func lookupCounterValue(registry *prom.Registry, metricName string, labels map[string]string) (float64, bool, error) {
	families, err := registry.Gather()
	if err != nil {
		return 0, false, err
	}

	for _, family := range families {
		if family.GetName() != metricName {
			continue
		}

	metrics:
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
					continue metrics
				}
			}
			return metric.GetCounter().GetValue(), true, nil
		}
	}

	return 0, false, nil
}

func counterValue(registry *prom.Registry, metricName string, labels map[string]string) float64 {
	value, found, err := lookupCounterValue(registry, metricName, labels)
	if err != nil {
		panic(err)
	}

	if !found {
		panic(fmt.Sprintf("counter %q with labels %v not found", metricName, labels))
	}

	return value
}

func classify(mapper *ipmapper.Mapper, remoteAddr string) ipmapper.Result {
	req := &http.Request{RemoteAddr: remoteAddr, Header: make(http.Header)}
	return mapper.Process(context.Background(), ipmapper.HTTPRequest(req), func() {})
}

func ExampleWithMetrics() {
	mapper, err := ipmapper.New(
		ipmapper.WithSource(exampleBlocks),
		ipmapper.WithHeaderName("Some-Header"),
		ipmapperprom.WithMetrics(),
	)
	if err != nil {
		panic(err)
	}

	result := classify(mapper, "192.168.40.1:12345")
	fmt.Println(result.Outcome, result.HeaderValue())
	// Output: matched annex,campus
}

func ExampleWithRegisterer() {
	registry := prom.NewRegistry()

	mapper, err := ipmapper.New(
		ipmapper.WithSource(exampleBlocks),
		ipmapper.WithHeaderName("Some-Header"),
		ipmapperprom.WithRegisterer(registry),
	)
	if err != nil {
		panic(err)
	}

	classify(mapper, "192.168.40.77:12345")

	fmt.Printf("%.0f\n", counterValue(registry, "ip_block_matches_total", map[string]string{
		"block": "campus",
	}))
	// Output: 1
}

func ExampleNewWithRegisterer() {
	registry := prom.NewRegistry()

	metrics, err := ipmapperprom.NewWithRegisterer(registry)
	if err != nil {
		panic(err)
	}

	mapper, err := ipmapper.New(
		ipmapper.WithSource(exampleBlocks),
		ipmapper.WithHeaderName("Some-Header"),
		ipmapper.WithMetrics(metrics),
	)
	if err != nil {
		panic(err)
	}

	classify(mapper, "8.8.8.8:12345")

	fmt.Printf("%.0f\n", counterValue(registry, "ip_classification_total", map[string]string{
		"outcome": "unmatched",
	}))
	// Output: 1
}
