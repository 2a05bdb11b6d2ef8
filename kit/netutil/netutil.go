// Package netutil holds small host/address helpers used by the router's
// Host-header safety check.
package netutil

import (
	"net"
	"strings"
)

// IsLocalhost reports whether host (an http.Request.Host-style value,
// optionally carrying a port and, for IPv6, brackets) names the loopback
// interface: "localhost" (any case) or a loopback IP literal. The router
// checks every request's Host header with it to reject requests that
// reached the loopback listener under some other host name.
func IsLocalhost(host string) bool {
	if host == "" {
		return false
	}

	hostname := stripPort(host)
	if hostname == "" {
		return false
	}

	if strings.EqualFold(hostname, "localhost") {
		return true
	}

	ip := net.ParseIP(hostname)
	if ip == nil {
		return false
	}

	return ip.IsLoopback()
}

// stripPort removes an optional trailing ":port" and, for bracketed IPv6
// literals, the brackets themselves. It returns "" for malformed input
// rather than guessing.
func stripPort(host string) string {
	if strings.HasPrefix(host, "[") {
		end := strings.IndexByte(host, ']')
		if end < 0 {
			return ""
		}
		rest := host[end+1:]
		if rest != "" && !strings.HasPrefix(rest, ":") {
			return ""
		}
		return host[1:end]
	}

	// Bare IPv6 literal with no brackets and no port, e.g. "::1" or the
	// long-form "0:0:0:0:0:0:0:1": more than one colon means it can't be
	// a host:port pair, since a port-carrying host would need brackets.
	if strings.Count(host, ":") > 1 {
		if net.ParseIP(host) != nil {
			return host
		}
		return ""
	}

	if idx := strings.LastIndexByte(host, ':'); idx >= 0 {
		return host[:idx]
	}

	return host
}
