// Package ipmatch evaluates client IPs against configured allow-list
// patterns (exact addresses or CIDR blocks, IPv4 and IPv6).
package ipmatch

import (
	"net/netip"
	"strings"
)

// Matches reports whether ip matches pattern. A pattern is either an
// exact address or a CIDR block. Malformed input never panics or
// errors; it simply does not match, so allow-list evaluation is total
// over arbitrary configured strings.
func Matches(ip, pattern string) bool {
	if ip == pattern {
		return true
	}
	if !strings.Contains(pattern, "/") {
		return false
	}

	prefix, err := netip.ParsePrefix(pattern)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	// An IPv6 address never matches an IPv4 block and vice versa.
	if addr.Is4() != prefix.Addr().Is4() {
		return false
	}
	return prefix.Contains(addr)
}

// Allowed reports whether ip matches any of the configured patterns.
// An empty pattern list allows everything.
func Allowed(ip string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if Matches(ip, pattern) {
			return true
		}
	}
	return false
}
