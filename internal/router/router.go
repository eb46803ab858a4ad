package router

import (
	"net/http"

	"github.com/blockqueue/mailer/internal/handler"
	"github.com/blockqueue/mailer/internal/middleware"
)

// New creates and configures the HTTP router.
//
// Every route passes through the admission pipeline (HTTPS enforcement,
// IP allow-list, body validation) wrapped in audit logging and panic
// recovery. The send route additionally goes through rate limiting and
// authentication; the health route does not.
func New(h *handler.Handler, mw *middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", middleware.Chain(
		http.HandlerFunc(h.Health),
		mw.Recover,
		mw.Audit,
		mw.HTTPSOnly,
		mw.IPAllowlist,
		mw.BodyValidation,
	))

	mux.Handle("POST /send", middleware.Chain(
		http.HandlerFunc(h.Send),
		mw.Recover,
		mw.Audit,
		mw.HTTPSOnly,
		mw.IPAllowlist,
		mw.BodyValidation,
		mw.RateLimit,
		mw.Auth,
	))

	return mux
}
