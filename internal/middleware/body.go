package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/blockqueue/mailer/internal/model"
)

const (
	rawBodyKey    contextKey = "raw_body"
	parsedBodyKey contextKey = "parsed_body"
)

// BodyValidation enforces the body-size and content-type policy, then
// parses the JSON body once and attaches both the raw bytes (needed by
// HMAC auth) and the parsed request to the context for every later
// stage and the handler.
func (m *Middleware) BodyValidation(next http.Handler) http.Handler {
	maxBodySize := m.cfg.RequestValidation.BodyLimit()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The declared length may lie, but rejecting on it early is
		// cheap; the actual read below is bounded regardless.
		if cl := r.Header.Get("Content-Length"); cl != "" {
			if size, err := strconv.ParseInt(cl, 10, 64); err == nil && size > maxBodySize {
				writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
				return
			}
		}

		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if !strings.Contains(contentType, "application/json") {
			writeError(w, http.StatusBadRequest, "Content-Type must be application/json")
			return
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		if int64(len(raw)) > maxBodySize {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}

		var parsed model.SendRequest
		if err := json.Unmarshal(raw, &parsed); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON in request body")
			return
		}

		if rec := auditRecordFrom(r.Context()); rec != nil {
			rec.TemplateID = parsed.TemplateID
			rec.AccountID = parsed.Account
			rec.RequestSize = int64(len(raw))
		}

		ctx := context.WithValue(r.Context(), rawBodyKey, raw)
		ctx = context.WithValue(ctx, parsedBodyKey, &parsed)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RawBody returns the raw request bytes preserved for signature
// verification, or nil.
func RawBody(ctx context.Context) []byte {
	raw, _ := ctx.Value(rawBodyKey).([]byte)
	return raw
}

// ParsedBody returns the request parsed by BodyValidation, or nil if
// the pipeline has not run (a wiring bug the handler treats as a 500).
func ParsedBody(ctx context.Context) *model.SendRequest {
	parsed, _ := ctx.Value(parsedBodyKey).(*model.SendRequest)
	return parsed
}
