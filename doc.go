// Package ipmapper classifies the client IPv4 address of an HTTP request
// against named network blocks and injects a header listing every block the
// address falls within, so downstream applications can make access decisions
// on network origin without embedding subnet logic.
//
// # Configuration
//
// Blocks are loaded from a key/value source, one block per key, each value a
// comma-separated list of IPv4 addresses or CIDRs:
//
//	campus=192.168.40.0/24
//	annex=192.168.40.0/28
//	housing=192.168.38.0/24,10.20.30.40
//
// Java-style properties files and YAML mappings are supported (FileSource),
// as is any custom Source. Loading is best-effort: a malformed token is
// skipped with a warning, and a source that cannot be read leaves the mapper
// in pass-through mode instead of failing startup.
//
// # Basic Usage
//
//	mapper, err := ipmapper.New(
//	    ipmapper.WithMappingFile("/etc/ipmapper/blocks.properties"),
//	    ipmapper.WithHeaderName("X-Network-Blocks"),
//	    ipmapper.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	http.ListenAndServe(":8080", mapper.Middleware(app))
//
// For a client at 192.168.40.1 the application sees
// "X-Network-Blocks: annex,campus".
//
// # Header Protocol
//
// A value of the target header sent by the client is always removed and
// logged as a spoofing attempt; it is never merged with computed matches. The
// header is set only when at least one block matches, and the next handler is
// always called exactly once.
//
// # Ordering
//
// By default (OrderByName) block names appear in the header sorted by name,
// independent of the source format. WithBlockOrder(OrderDeclared) keeps
// source order instead.
//
// # Security Considerations
//
// The client address is taken from the first entry of X-Forwarded-For when the
// header is present, otherwise from the connection. The immediate peer is not
// verified to be a trusted proxy, so this is only safe when every request
// reaches the application through a proxy that sets or overwrites the
// header. Use PresetDirectConnection when there is no proxy.
//
// Only IPv4 is classified; requests from IPv6 clients pass through without
// the header.
//
// # Reloading
//
// Reload builds a new Registry and swaps it in atomically. Concurrent requests
// observe either the old or the new registry, never a mix.
//
// # Observability
//
// WithLogger accepts *slog.Logger directly. WithMetrics accepts any Metrics;
// a Prometheus implementation lives in github.com/abczzz13/ipmapper/prometheus.
package ipmapper
