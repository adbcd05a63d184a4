package middleware

import (
	"net"
	"net/http"
	"strings"
)

// TrustedRealIP rewrites RemoteAddr from X-Forwarded-For, counting trustedHops
// entries in from the right. Entries to the left of that are client supplied
// and ignored. With zero hops the header is never trusted.
func TrustedRealIP(trustedHops int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := forwardedFor(r.Header.Values("X-Forwarded-For"), trustedHops); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedFor(headers []string, trustedHops int) string {
	if trustedHops <= 0 {
		return ""
	}

	var hops []string
	for _, h := range headers {
		for _, part := range strings.Split(h, ",") {
			if part = strings.TrimSpace(part); part != "" {
				hops = append(hops, part)
			}
		}
	}
	if len(hops) < trustedHops {
		return ""
	}

	ip := hops[len(hops)-trustedHops]
	if net.ParseIP(ip) == nil {
		return ""
	}
	return ip
}
