package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Proxy headers checked in priority order: CDN-specific headers first,
// then the generic proxy headers.
var headerPriority = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP extracts the client IP address from r, consulting proxy headers
// in priority order and falling back to RemoteAddr. Returned addresses
// are validated and normalized; when nothing validates, the raw
// RemoteAddr is returned as-is so callers always get a non-empty key.
func GetIP(r *http.Request) string {
	for _, header := range headerPriority {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}

		// X-Forwarded-For lists "client, proxy1, proxy2"; the leftmost
		// entry is the original client.
		if header == "X-Forwarded-For" {
			value, _, _ = strings.Cut(value, ",")
		}

		if ip := normalize(value); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := normalize(host); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// normalize validates and canonicalizes one IP string. Returns "" for
// invalid addresses and the unspecified 0.0.0.0/:: addresses.
func normalize(value string) string {
	ip := net.ParseIP(strings.TrimSpace(value))
	if ip == nil || ip.IsUnspecified() {
		return ""
	}
	return ip.String()
}
