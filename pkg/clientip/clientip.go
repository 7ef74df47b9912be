// Package clientip resolves the originating client address of an HTTP
// request, looking through the proxy headers set by common load balancers
// before falling back to the socket address.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest returns the client IP for r. Header order: X-Forwarded-For
// (first valid entry), then X-Real-IP, then RemoteAddr. Returns an empty
// string only when nothing parses as an IP.
func FromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for _, ip := range strings.Split(forwarded, ",") {
			if parsed := normalize(ip); parsed != "" {
				return parsed
			}
		}
	}

	if ip := normalize(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

func normalize(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
