package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const auditRecordKey contextKey = "audit_record"

// Thresholds for flagged audit events.
const (
	largeRequestBytes = 100 * 1024
	slowResponseTime  = time.Second
)

// auditRecord accumulates per-request audit fields. It is placed in
// the context as a pointer so inner stages (body validation) can fill
// in what they learn.
type auditRecord struct {
	RequestID   string
	TemplateID  string
	AccountID   string
	RequestSize int64
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Audit emits one entry per request, success or failure. It wraps the
// whole pipeline so short-circuited rejections (401/403/429) are still
// recorded. Entries never include the payload body; only identifiers
// already extracted from it.
func (m *Middleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &auditRecord{RequestID: requestID}
		if cl := r.ContentLength; cl > 0 {
			rec.RequestSize = cl
		}
		ctx := context.WithValue(r.Context(), auditRecordKey, rec)

		wrapped := newResponseWriter(w)
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		duration := time.Since(start)
		event := auditEvent(wrapped.statusCode, rec.RequestSize, duration)

		var entry *zerolog.Event
		if event != "" {
			entry = m.log.Warn().Str("event", event)
		} else {
			entry = m.log.Info()
		}
		entry = entry.
			Str("audit", "true").
			Str("request_id", rec.RequestID).
			Str("ip", ClientIP(r)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Int64("request_size", rec.RequestSize).
			Dur("response_time", duration)
		if rec.TemplateID != "" {
			entry = entry.Str("template_id", rec.TemplateID)
		}
		if rec.AccountID != "" {
			entry = entry.Str("account_id", rec.AccountID)
		}
		entry.Msg("request")
	})
}

func auditEvent(status int, size int64, duration time.Duration) string {
	switch {
	case status == http.StatusUnauthorized:
		return "authentication_failed"
	case status == http.StatusForbidden:
		return "access_denied"
	case status == http.StatusTooManyRequests:
		return "rate_limit_exceeded"
	case size > largeRequestBytes:
		return "large_request"
	case duration > slowResponseTime:
		return "slow_request"
	default:
		return ""
	}
}

func auditRecordFrom(ctx context.Context) *auditRecord {
	rec, _ := ctx.Value(auditRecordKey).(*auditRecord)
	return rec
}

// RequestIDFrom returns the request id assigned by Audit, or "".
func RequestIDFrom(ctx context.Context) string {
	if rec := auditRecordFrom(ctx); rec != nil {
		return rec.RequestID
	}
	return ""
}
