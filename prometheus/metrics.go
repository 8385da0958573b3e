package prometheus

import (
	"errors"
	"fmt"

	"github.com/abczzz13/ipmapper"
	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics is a Prometheus-backed implementation of ipmapper.Metrics.
type PrometheusMetrics struct {
	classifications *prom.CounterVec
	blockMatches    *prom.CounterVec
	securityEvents  *prom.CounterVec
	registryLoads   *prom.CounterVec
	registryBlocks  prom.Gauge
}

// WithMetrics returns an ipmapper option that installs Prometheus-backed
// metrics using prom.DefaultRegisterer.
func WithMetrics() ipmapper.Option {
	return ipmapper.WithMetricsFactory(func() (ipmapper.Metrics, error) {
		return New()
	})
}

// WithRegisterer returns an ipmapper option that installs Prometheus-backed
// metrics using the provided registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used.
func WithRegisterer(registerer prom.Registerer) ipmapper.Option {
	return ipmapper.WithMetricsFactory(func() (ipmapper.Metrics, error) {
		return NewWithRegisterer(registerer)
	})
}

// New creates PrometheusMetrics and registers its collectors on
// prom.DefaultRegisterer.
func New() (*PrometheusMetrics, error) {
	return NewWithRegisterer(prom.DefaultRegisterer)
}

// NewWithRegisterer creates PrometheusMetrics and registers its collectors on
// the given registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used. If the metrics are
// already registered, existing compatible collectors are reused.
func NewWithRegisterer(registerer prom.Registerer) (*PrometheusMetrics, error) {
	if registerer == nil {
		registerer = prom.DefaultRegisterer
	}

	classifications, err := registerCollector(registerer, prom.NewCounterVec(
		prom.CounterOpts{
			Name: "ip_classification_total",
			Help: "Total number of processed requests by outcome (matched, unmatched, skipped, unconfigured).",
		},
		[]string{"outcome"},
	), "ip_classification_total")
	if err != nil {
		return nil, err
	}

	blockMatches, err := registerCollector(registerer, prom.NewCounterVec(
		prom.CounterOpts{
			Name: "ip_block_matches_total",
			Help: "Total number of requests whose client address matched a network block, labeled by block.",
		},
		[]string{"block"},
	), "ip_block_matches_total")
	if err != nil {
		return nil, err
	}

	securityEvents, err := registerCollector(registerer, prom.NewCounterVec(
		prom.CounterOpts{
			Name: "ip_mapper_security_events_total",
			Help: "Security and configuration-quality events observed by the IP mapper, labeled by event.",
		},
		[]string{"event"},
	), "ip_mapper_security_events_total")
	if err != nil {
		return nil, err
	}

	registryLoads, err := registerCollector(registerer, prom.NewCounterVec(
		prom.CounterOpts{
			Name: "ip_mapper_registry_loads_total",
			Help: "Total number of mapping configuration loads by result (success, empty, failure).",
		},
		[]string{"result"},
	), "ip_mapper_registry_loads_total")
	if err != nil {
		return nil, err
	}

	registryBlocks, err := registerCollector(registerer, prom.NewGauge(
		prom.GaugeOpts{
			Name: "ip_mapper_registry_blocks",
			Help: "Number of network blocks in the active registry.",
		},
	), "ip_mapper_registry_blocks")
	if err != nil {
		return nil, err
	}

	return &PrometheusMetrics{
		classifications: classifications,
		blockMatches:    blockMatches,
		securityEvents:  securityEvents,
		registryLoads:   registryLoads,
		registryBlocks:  registryBlocks,
	}, nil
}

func registerCollector[T prom.Collector](registerer prom.Registerer, collector T, metricName string) (T, error) {
	if err := registerer.Register(collector); err != nil {
		var zero T

		var alreadyRegistered prom.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(T)
			if ok {
				return existing, nil
			}
			return zero, fmt.Errorf("metric %q already registered with incompatible collector type %T", metricName, alreadyRegistered.ExistingCollector)
		}

		return zero, fmt.Errorf("register metric %q: %w", metricName, err)
	}

	return collector, nil
}

// RecordClassification increments ip_classification_total for the outcome.
func (m *PrometheusMetrics) RecordClassification(outcome string) {
	m.classifications.WithLabelValues(outcome).Inc()
}

// RecordBlockMatch increments ip_block_matches_total for the block.
func (m *PrometheusMetrics) RecordBlockMatch(block string) {
	m.blockMatches.WithLabelValues(block).Inc()
}

// RecordSecurityEvent increments ip_mapper_security_events_total for the
// provided event label.
func (m *PrometheusMetrics) RecordSecurityEvent(event string) {
	m.securityEvents.WithLabelValues(event).Inc()
}

// RecordRegistryLoad increments ip_mapper_registry_loads_total for the result
// and sets ip_mapper_registry_blocks to the active block count.
func (m *PrometheusMetrics) RecordRegistryLoad(result string, blocks int) {
	m.registryLoads.WithLabelValues(result).Inc()
	m.registryBlocks.Set(float64(blocks))
}
