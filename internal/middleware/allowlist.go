package middleware

import (
	"net/http"

	"github.com/blockqueue/mailer/internal/ipmatch"
)

// IPAllowlist rejects requests from networks outside the configured
// allow-list. It runs before authentication so disallowed callers
// never reach a secret comparison.
func (m *Middleware) IPAllowlist(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowlist := m.cfg.IPAllowlist
		if !allowlist.Enabled || len(allowlist.AllowedIPs) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		ip := ClientIP(r)
		if ip == "" {
			writeError(w, http.StatusForbidden, "could not determine client IP")
			return
		}
		if !ipmatch.Allowed(ip, allowlist.AllowedIPs) {
			m.log.Warn().Str("ip", ip).Msg("request from disallowed IP")
			writeError(w, http.StatusForbidden, "IP address not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}
