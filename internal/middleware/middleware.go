// Package middleware implements the request admission pipeline: an
// ordered chain of independent checks every request must pass before
// reaching dispatch. Each stage either passes control on or
// short-circuits with a terminal JSON error response.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/blockqueue/mailer/internal/config"
	"github.com/blockqueue/mailer/internal/logger"
	"github.com/blockqueue/mailer/internal/ratelimit"
)

type contextKey string

// Middleware holds all HTTP middleware
type Middleware struct {
	cfg     *config.Config
	limiter *ratelimit.Store
	log     *logger.Logger
}

// New creates a new Middleware instance
func New(cfg *config.Config, limiter *ratelimit.Store, log *logger.Logger) *Middleware {
	return &Middleware{
		cfg:     cfg,
		limiter: limiter,
		log:     log,
	}
}

// Chain applies middlewares right to left, so the first listed runs
// outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// ClientIP extracts the client IP from proxy headers, falling back to
// the connection address. Returns "" when it cannot be determined.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// May contain multiple hops; the first is the client.
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if cf := r.Header.Get("CF-Connecting-IP"); cf != "" {
		return cf
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		// Strip the port, careful with bracketed IPv6.
		if strings.HasPrefix(host, "[") {
			host = strings.TrimSuffix(strings.TrimPrefix(host[:i], "["), "]")
		} else if strings.Count(host, ":") == 1 {
			host = host[:i]
		}
	}
	return host
}

// writeError emits the machine-readable error body shared by all
// pipeline stages.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
