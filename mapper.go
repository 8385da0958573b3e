package ipmapper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Mapper classifies requests against the active Registry and maintains the
// classification header.
//
// Mapper instances are safe for concurrent use. Lookups read the active
// registry through an atomic pointer and never block on Reload.
type Mapper struct {
	config   *config
	registry atomic.Pointer[Registry]

	// reloadMu serializes writers only.
	reloadMu sync.Mutex
}

// New creates a Mapper from one or more Option builders and performs the
// initial load.
//
// Only configuration errors are returned. A mapping source that cannot be
// loaded is logged and leaves the mapper in pass-through mode until a later
// Reload succeeds.
func New(opts ...Option) (*Mapper, error) {
	cfg, err := configFromOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	m := &Mapper{config: cfg}
	m.registry.Store(emptyRegistry())

	_ = m.Reload(context.Background())

	return m, nil
}

// HeaderName returns the canonical target header name, or "" when the mapper
// is not configured to emit one.
func (m *Mapper) HeaderName() string {
	return m.config.headerName
}

// Registry returns the active registry. It is never nil.
func (m *Mapper) Registry() *Registry {
	return m.registry.Load()
}

// Reload re-reads the configured source and atomically publishes the result.
//
// A source that cannot be read publishes the empty registry and returns the
// *ConfigLoadError. If ctx ends before the read completes, the active
// registry is kept, no load is recorded and the context error is returned.
func (m *Mapper) Reload(ctx context.Context) error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	registry, result, err := loadRegistry(ctx, m.config, m.config.source)
	if err != nil && isContextError(err) {
		return err
	}

	m.registry.Store(registry)
	m.config.metrics.RecordRegistryLoad(result, registry.Len())
	return err
}

// Classify returns the names of the blocks containing address in the active
// registry.
func (m *Mapper) Classify(address string) []string {
	return m.Registry().Classify(address)
}

// ResolveClientAddress picks the candidate client address for a request.
//
// Without a forwarded header the remote address is returned unchanged.
// Otherwise the first comma-separated entry of the forwarded value is
// returned, trimmed; ok is false when that entry is empty.
//
// Only the left-most entry is used and the immediate peer is not checked
// against a trusted-proxy list, so a client that reaches the server directly
// can choose the address it is classified as. Deployments without a proxy
// should disable the forwarded header (see PresetDirectConnection).
func ResolveClientAddress(forwardedValue string, forwardedPresent bool, remoteAddr string) (address string, ok bool) {
	if !forwardedPresent {
		return remoteAddr, true
	}

	first, _, _ := strings.Cut(forwardedValue, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return "", false
	}

	return first, true
}
