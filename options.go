package ipmapper

import (
	"fmt"
	"net/http"
	"time"
)

// WithHeaderName sets the header that is scrubbed on entry and set to the
// matched block names. Without it the mapper passes requests through
// untouched.
func WithHeaderName(name string) Option {
	return func(c *config) error {
		c.headerName = http.CanonicalHeaderKey(name)
		return nil
	}
}

// WithMappingFile loads blocks from path. The format is chosen by FileSource.
func WithMappingFile(path string) Option {
	return func(c *config) error {
		if path == "" {
			c.source = nil
			return nil
		}

		c.source = FileSource(path)
		return nil
	}
}

// WithSource loads blocks from an arbitrary Source. The last of WithSource and
// WithMappingFile wins.
func WithSource(source Source) Option {
	return func(c *config) error {
		if source == nil {
			return fmt.Errorf("source cannot be nil")
		}

		c.source = source
		return nil
	}
}

// WithForwardedHeader sets the proxy header whose first comma-separated entry
// is preferred over the remote address. An empty name disables proxy headers
// and classifies the remote address only.
func WithForwardedHeader(name string) Option {
	return func(c *config) error {
		if name == "" {
			c.forwardedHeader = ""
			return nil
		}

		c.forwardedHeader = http.CanonicalHeaderKey(name)
		return nil
	}
}

// WithBlockOrder sets the registry iteration order, which is also the order
// of names in the emitted header.
func WithBlockOrder(order BlockOrder) Option {
	return func(c *config) error {
		c.blockOrder = order
		return nil
	}
}

// WithLoadRetry retries transient source read failures with exponential
// backoff capped at maxDelay. Format errors and missing files are never
// retried.
func WithLoadRetry(attempts uint, maxDelay time.Duration) Option {
	return func(c *config) error {
		c.loadAttempts = attempts
		c.loadMaxDelay = maxDelay
		return nil
	}
}

// WithLogger sets the logger used for load results and security warnings.
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics sets a concrete metrics implementation.
//
// If previously configured, a metrics factory is disabled.
func WithMetrics(metrics Metrics) Option {
	return func(c *config) error {
		c.metrics = metrics
		c.metricsFactory = nil
		c.useMetricsFactory = false
		return nil
	}
}

// WithMetricsFactory configures a lazy metrics constructor.
//
// The factory is invoked only for the final winning metrics option after
// option validation succeeds.
func WithMetricsFactory(factory func() (Metrics, error)) Option {
	return func(c *config) error {
		if factory == nil {
			return errMetricsFactoryNil
		}

		c.metricsFactory = factory
		c.useMetricsFactory = true
		return nil
	}
}
