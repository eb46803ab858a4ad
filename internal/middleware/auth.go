package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/blockqueue/mailer/internal/config"
	"github.com/blockqueue/mailer/internal/signature"
)

// Auth authenticates the dispatch route using the configured variant:
// API-key header comparison or HMAC body signature. It runs last among
// the shared stages and never mutates state.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch m.cfg.Auth.Type {
		case config.AuthAPIKey:
			key := r.Header.Get(m.cfg.Auth.HeaderName())
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(m.cfg.Auth.Value)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

		case config.AuthHMAC:
			header := r.Header.Get(m.cfg.Auth.HeaderName())
			raw := RawBody(r.Context())
			// A missing header and a failed verification report the
			// same error so callers cannot probe which check failed.
			if header == "" || !signature.Verify(raw, header, m.cfg.Auth.Secret, m.cfg.Auth.Tolerance) {
				writeError(w, http.StatusUnauthorized, "invalid signature")
				return
			}

		default:
			// Config validation rejects unknown auth types at startup.
			writeError(w, http.StatusInternalServerError, "authentication misconfigured")
			return
		}

		next.ServeHTTP(w, r)
	})
}
