// Package prometheus provides a Prometheus adapter for
// github.com/abczzz13/ipmapper.
//
// The package exposes ipmapper options that install a Prometheus-backed
// Metrics implementation on a mapper, using either the default registerer or
// a caller-provided registerer.
package prometheus
