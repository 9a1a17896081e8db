package netutil

import (
	"net"
	"net/url"
	"strings"
)

// loopbackHosts are the host names treated as a local development runtime.
var loopbackHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
	"0.0.0.0":   {},
}

// ExtractHost returns the bare lowercase host from a target that may be a URL,
// host:port, or a bracketed IPv6 address.
//
// Examples:
//
//	"https://app.example.com/index.html" -> "app.example.com"
//	"localhost:3000"                     -> "localhost"
//	"[::1]:80"                           -> "::1"
func ExtractHost(target string) string {
	if strings.Contains(target, "://") || strings.HasPrefix(target, "//") {
		if u, err := url.Parse(target); err == nil && u.Host != "" {
			target = u.Host
		}
	}

	host := target
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	return strings.ToLower(host)
}

// IsLoopbackHost reports whether target's host is one of the fixed loopback
// aliases.
func IsLoopbackHost(target string) bool {
	_, ok := loopbackHosts[ExtractHost(target)]
	return ok
}
