package ipmapper

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/net/http/httpguts"
)

var errMetricsFactoryNil = errors.New("metrics factory cannot be nil")

func (c *config) validate() error {
	if c.headerName != "" && !httpguts.ValidHeaderFieldName(c.headerName) {
		return fmt.Errorf("header name %q is not a valid HTTP header field name", c.headerName)
	}
	if c.forwardedHeader != "" && !httpguts.ValidHeaderFieldName(c.forwardedHeader) {
		return fmt.Errorf("forwarded header %q is not a valid HTTP header field name", c.forwardedHeader)
	}
	if c.headerName != "" && strings.EqualFold(c.headerName, c.forwardedHeader) {
		return fmt.Errorf("header name %q cannot also be the forwarded header", c.headerName)
	}
	if !c.blockOrder.valid() {
		return fmt.Errorf("invalid block order %d (must be OrderByName=1 or OrderDeclared=2)", c.blockOrder)
	}
	if c.loadAttempts == 0 {
		return fmt.Errorf("load attempts must be >= 1, got 0")
	}
	if c.loadMaxDelay < 0 {
		return fmt.Errorf("load max delay must be >= 0, got %s", c.loadMaxDelay)
	}
	if isNilLogger(c.logger) {
		return fmt.Errorf("logger cannot be nil")
	}
	if isNilMetrics(c.metrics) {
		return fmt.Errorf("metrics cannot be nil")
	}
	return nil
}

func isNilLogger(logger Logger) bool {
	return isNilInterface(logger)
}

func isNilMetrics(metrics Metrics) bool {
	return isNilInterface(metrics)
}

func isNilInterface(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

// validBlockName reports whether name can be emitted verbatim as one token of
// the header value.
func validBlockName(name string) bool {
	if name == "" || name != strings.TrimSpace(name) {
		return false
	}
	if strings.Contains(name, HeaderDelimiter) {
		return false
	}
	return httpguts.ValidHeaderFieldValue(name)
}
