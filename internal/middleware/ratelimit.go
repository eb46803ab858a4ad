package middleware

import (
	"fmt"
	"net/http"
	"strconv"
)

// RateLimit applies the dual sliding-window limiter to the dispatch
// route. Requests whose client IP cannot be determined are rejected
// outright: an unattributable caller cannot be rate limited.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil || !m.limiter.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		ip := ClientIP(r)
		if ip == "" {
			writeError(w, http.StatusForbidden, "could not determine client IP")
			return
		}

		res := m.limiter.Allow(ip)
		if !res.OK {
			m.log.Warn().
				Str("ip", ip).
				Int("retry_after", res.RetryAfter).
				Msg("rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
			writeError(w, http.StatusTooManyRequests,
				fmt.Sprintf("rate limit exceeded: maximum %d requests per %s", res.Max, res.Span))
			return
		}
		next.ServeHTTP(w, r)
	})
}
