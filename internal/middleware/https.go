package middleware

import (
	"net/http"
	"strings"
)

// HTTPSOnly rejects plaintext requests so credentials and payloads are
// never accepted over unencrypted channels. Loopback hosts are exempt
// for local development.
func (m *Middleware) HTTPSOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			next.ServeHTTP(w, r)
			return
		}
		if isLoopbackHost(r.Host) {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusForbidden, "HTTPS required")
	})
}

func isLoopbackHost(host string) bool {
	return strings.Contains(host, "localhost") ||
		strings.Contains(host, "127.0.0.1") ||
		strings.Contains(host, "[::1]")
}
