package ipmapper

import (
	"time"
)

const (
	// DefaultForwardedHeader is the proxy header consulted before the
	// connection's remote address.
	DefaultForwardedHeader = "X-Forwarded-For"

	// DefaultLoadAttempts reads a mapping source once, without retries.
	DefaultLoadAttempts = 1

	// DefaultLoadMaxDelay caps the backoff between load attempts when
	// retries are enabled.
	DefaultLoadMaxDelay = 2 * time.Second
)

const (
	// SourceRemoteAddr labels addresses taken from the connection.
	SourceRemoteAddr = "remote_addr"
	// SourceXForwardedFor labels addresses taken from X-Forwarded-For.
	SourceXForwardedFor = "x_forwarded_for"
)

// Option configures a Mapper, or a one-shot Load.
//
// Construct options using package-provided option builder functions.
type Option func(*config) error

// config holds mapper configuration state.
//
// It is mutated by Option functions during construction only; a Mapper never
// changes its config afterwards.
type config struct {
	headerName      string
	forwardedHeader string
	source          Source
	blockOrder      BlockOrder

	loadAttempts uint
	loadMaxDelay time.Duration

	logger  Logger
	metrics Metrics

	metricsFactory    func() (Metrics, error)
	useMetricsFactory bool
}

func defaultConfig() *config {
	return &config{
		forwardedHeader: DefaultForwardedHeader,
		blockOrder:      OrderByName,
		loadAttempts:    DefaultLoadAttempts,
		loadMaxDelay:    DefaultLoadMaxDelay,
		logger:          noopLogger{},
		metrics:         noopMetrics{},
	}
}

func applyOptions(c *config, opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return err
		}
	}

	return nil
}

func configFromOptions(opts ...Option) (*config, error) {
	cfg := defaultConfig()

	if err := applyOptions(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.useMetricsFactory && cfg.metricsFactory == nil {
		return nil, errMetricsFactoryNil
	}

	// Validate before running the factory so a rejected configuration does
	// not register collectors.
	validationConfig := cfg
	if cfg.useMetricsFactory {
		validationConfig = cfg.clone()
		validationConfig.metrics = noopMetrics{}
	}

	if err := validationConfig.validate(); err != nil {
		return nil, err
	}

	if cfg.useMetricsFactory {
		metrics, err := cfg.metricsFactory()
		if err != nil {
			return nil, err
		}
		cfg.metrics = metrics

		if err := cfg.validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *config) clone() *config {
	clone := *c
	return &clone
}

// forwardedSourceName returns the Result source label for the forwarded header.
func (c *config) forwardedSourceName() string {
	return NormalizeSourceName(c.forwardedHeader)
}
