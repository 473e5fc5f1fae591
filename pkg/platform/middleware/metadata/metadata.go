package metadata

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"talaty/pkg/requestcontext"
)

// maxUserAgent bounds what reaches the audit trail.
const maxUserAgent = 512

// ClientMetadata records the caller's address and user agent on the context
// so audit events can be enriched without threading the request around.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		if len(ua) > maxUserAgent {
			ua = ua[:maxUserAgent]
		}
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest prefers the first parseable X-Forwarded-For hop, then
// X-Real-IP, then the socket peer. Header values that are not addresses are
// skipped.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for hop := range strings.SplitSeq(xff, ",") {
			if ip, ok := parseIP(hop); ok {
				return ip
			}
		}
	}
	if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
		return ip
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if ip, ok := parseIP(host); ok {
		return ip
	}
	return "unknown"
}

func parseIP(raw string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
