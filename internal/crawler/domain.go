package crawler

import (
	"net"
	"strings"
)

// genericSecondLevel lists the second-level labels that are treated as part
// of the public suffix when they sit under a two-letter country code,
// as in "example.co.uk" or "example.com.au".
var genericSecondLevel = map[string]bool{
	"com": true,
	"co":  true,
	"org": true,
	"net": true,
	"gov": true,
	"edu": true,
	"ac":  true,
}

// RegistrableDomain returns the heuristic "main domain" of host.
//
// The result is the last two labels of host, or the last three labels when
// the second-to-last label is a generic second-level label under a
// two-letter country code. IP addresses and single-label hosts are returned
// unchanged. The comparison is case-insensitive and ignores a trailing dot.
//
// This is a heuristic, not a public suffix lookup: hosts under multi-part
// suffixes not covered by the rule (e.g. "user.github.io") collapse onto
// the suffix ("github.io").
func RegistrableDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if net.ParseIP(host) != nil {
		return host
	}

	labels := strings.Split(host, ".")
	n := len(labels)
	if n <= 2 {
		return host
	}

	tld := labels[n-1]
	sld := labels[n-2]
	if len(tld) == 2 && genericSecondLevel[sld] {
		return strings.Join(labels[n-3:], ".")
	}
	return strings.Join(labels[n-2:], ".")
}

// SameSite reports whether hosts a and b share a registrable domain.
func SameSite(a, b string) bool {
	return RegistrableDomain(a) == RegistrableDomain(b)
}
