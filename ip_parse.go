package ipmapper

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// ValidateIPv4 reports whether candidate is a strict dotted-quad IPv4 literal:
// four decimal octets in 0-255 without leading zeros, surrounding whitespace,
// ports, zones or IPv6 forms (including IPv4-mapped IPv6).
func ValidateIPv4(candidate string) bool {
	_, ok := parseIPv4(candidate)
	return ok
}

// parseIPv4 parses a strict IPv4 literal. netip.ParseAddr already rejects
// leading zeros, whitespace and extra segments; Is4 rules out every IPv6 form.
func parseIPv4(s string) (netip.Addr, bool) {
	if s == "" {
		return netip.Addr{}, false
	}

	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, false
	}

	return addr, true
}

// Range is one entry of a NetworkBlock: either a bare IPv4 address or an IPv4
// CIDR.
type Range struct {
	// Prefix is the masked network. Bare addresses are stored as /32.
	Prefix netip.Prefix
	// Bare reports that the range was configured as a single address.
	Bare bool
}

// ParseRange parses a range token of the form "a.b.c.d" or
// "a.b.c.d/prefix". The CIDR base address is masked to its prefix, so
// "192.168.40.7/24" covers 192.168.40.0-192.168.40.255.
func ParseRange(token string) (Range, error) {
	addrPart, bitsPart, hasBits := strings.Cut(token, "/")

	addr, ok := parseIPv4(addrPart)
	if !ok {
		return Range{}, fmt.Errorf("%w: %q is not an IPv4 address", ErrMalformedRange, addrPart)
	}

	if !hasBits {
		return Range{Prefix: netip.PrefixFrom(addr, 32), Bare: true}, nil
	}

	bits, err := parsePrefixLength(bitsPart)
	if err != nil {
		return Range{}, err
	}

	return Range{Prefix: netip.PrefixFrom(addr, bits).Masked()}, nil
}

// parsePrefixLength accepts a decimal integer in [0,32] without sign or
// leading zeros.
func parsePrefixLength(s string) (int, error) {
	if s == "" || len(s) > 2 || (len(s) > 1 && s[0] == '0') {
		return 0, fmt.Errorf("%w: invalid prefix length %q", ErrMalformedRange, s)
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: invalid prefix length %q", ErrMalformedRange, s)
		}
	}

	bits, err := strconv.Atoi(s)
	if err != nil || bits > 32 {
		return 0, fmt.Errorf("%w: prefix length %q out of range [0,32]", ErrMalformedRange, s)
	}

	return bits, nil
}

// Contains reports whether addr lies in the range. Bare ranges match by exact
// address equality; CIDR ranges match every address in
// [network, network+2^(32-prefix)-1].
func (r Range) Contains(addr netip.Addr) bool {
	if !addr.Is4() || !r.Prefix.IsValid() {
		return false
	}

	if r.Bare {
		return r.Prefix.Addr() == addr
	}

	return r.Prefix.Contains(addr)
}

// String returns the canonical text form: the address for bare ranges, the
// masked CIDR otherwise.
func (r Range) String() string {
	if r.Bare {
		return r.Prefix.Addr().String()
	}
	return r.Prefix.String()
}

// ipNet converts the range into the net.IPNet form used by the containment
// index.
func (r Range) ipNet() net.IPNet {
	return net.IPNet{
		IP:   net.IP(r.Prefix.Addr().AsSlice()),
		Mask: net.CIDRMask(r.Prefix.Bits(), 32),
	}
}

// hostFromRemoteAddr strips an optional port from a host:port remote address.
// Values that do not split are returned unchanged so that validation decides.
func hostFromRemoteAddr(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
