package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockqueue/mailer/internal/config"
	"github.com/blockqueue/mailer/internal/logger"
	"github.com/blockqueue/mailer/internal/ratelimit"
	"github.com/blockqueue/mailer/internal/signature"
)

func newTestMiddleware(cfg *config.Config, limiter *ratelimit.Store) *Middleware {
	return New(cfg, limiter, logger.New("disabled", "json"))
}

// okHandler marks that the chain passed all stages.
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("passed"))
})

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"x-forwarded-for single", "10.0.0.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.9"}, "203.0.113.9"},
		{"x-forwarded-for multiple", "10.0.0.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "203.0.113.9"},
		{"cf-connecting-ip", "10.0.0.1:1234", map[string]string{"CF-Connecting-IP": "198.51.100.2"}, "198.51.100.2"},
		{"remote addr ipv4", "192.168.1.5:5555", nil, "192.168.1.5"},
		{"remote addr ipv6", "[2001:db8::1]:5555", nil, "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestHTTPSOnly(t *testing.T) {
	t.Parallel()

	mw := newTestMiddleware(&config.Config{}, nil)
	handler := mw.HTTPSOnly(okHandler)

	t.Run("plaintext to public host rejected", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "http://mailer.example.com/send", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "HTTPS required")
	})

	t.Run("forwarded https passes", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "http://mailer.example.com/send", nil)
		r.Header.Set("X-Forwarded-Proto", "https")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("localhost passes", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "http://localhost:3000/send", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestIPAllowlist(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		IPAllowlist: config.IPAllowlistConfig{
			Enabled:    true,
			AllowedIPs: []string{"10.0.0.0/8", "203.0.113.7"},
		},
	}
	mw := newTestMiddleware(cfg, nil)
	handler := mw.IPAllowlist(okHandler)

	t.Run("allowed cidr", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/send", nil)
		r.Header.Set("X-Forwarded-For", "10.20.30.40")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("disallowed ip", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/send", nil)
		r.Header.Set("X-Forwarded-For", "198.51.100.1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "IP address not allowed")
	})

	t.Run("disabled allowlist passes everyone", func(t *testing.T) {
		t.Parallel()
		off := newTestMiddleware(&config.Config{}, nil)
		r := httptest.NewRequest(http.MethodPost, "/send", nil)
		r.Header.Set("X-Forwarded-For", "198.51.100.1")
		w := httptest.NewRecorder()
		off.IPAllowlist(okHandler).ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestBodyValidation(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		RequestValidation: config.RequestValidationConfig{MaxBodySize: 256},
	}
	mw := newTestMiddleware(cfg, nil)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parsed := ParsedBody(r.Context())
		require.NotNil(t, parsed)
		raw := RawBody(r.Context())
		require.NotEmpty(t, raw)
		_, _ = w.Write([]byte(parsed.TemplateID))
	})
	handler := mw.BodyValidation(inner)

	t.Run("valid json attaches raw and parsed body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(`{"templateId":"welcome","payload":{}}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "welcome", w.Body.String())
	})

	t.Run("wrong content type", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "application/json")
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(`{not json`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid JSON")
	})

	t.Run("oversize actual body", func(t *testing.T) {
		t.Parallel()
		big := `{"templateId":"` + strings.Repeat("x", 300) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(big))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("oversize declared length on GET", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set("Content-Length", "9999")
		w := httptest.NewRecorder()
		mw.BodyValidation(okHandler).ServeHTTP(w, r)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("GET passes without body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		mw.BodyValidation(okHandler).ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("rejects over-limit with retry-after", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewStore(ratelimit.Window{Max: 2, Span: time.Minute}, ratelimit.Window{})
		mw := newTestMiddleware(&config.Config{}, store)
		handler := mw.RateLimit(okHandler)

		for i := 0; i < 2; i++ {
			r := httptest.NewRequest(http.MethodPost, "/send", nil)
			r.Header.Set("X-Forwarded-For", "203.0.113.9")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			require.Equal(t, http.StatusOK, w.Code)
		}

		r := httptest.NewRequest(http.MethodPost, "/send", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.9")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate limit exceeded")
	})

	t.Run("nil limiter passes", func(t *testing.T) {
		t.Parallel()

		mw := newTestMiddleware(&config.Config{}, nil)
		r := httptest.NewRequest(http.MethodPost, "/send", nil)
		w := httptest.NewRecorder()
		mw.RateLimit(okHandler).ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthAPIKey(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Auth: config.AuthConfig{Type: config.AuthAPIKey, Value: "secret-key"},
	}
	mw := newTestMiddleware(cfg, nil)
	handler := mw.Auth(okHandler)

	t.Run("valid key", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/send", nil)
		r.Header.Set("x-mailer-api-key", "secret-key")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/send", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "missing API key")
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/send", nil)
		r.Header.Set("x-mailer-api-key", "wrong")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid API key")
	})

	t.Run("custom header name", func(t *testing.T) {
		t.Parallel()
		custom := newTestMiddleware(&config.Config{
			Auth: config.AuthConfig{Type: config.AuthAPIKey, Header: "x-my-key", Value: "k"},
		}, nil)
		r := httptest.NewRequest(http.MethodPost, "/send", nil)
		r.Header.Set("x-my-key", "k")
		w := httptest.NewRecorder()
		custom.Auth(okHandler).ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthHMAC(t *testing.T) {
	t.Parallel()

	secret := "hmac-secret"
	cfg := &config.Config{
		Auth: config.AuthConfig{Type: config.AuthHMAC, Secret: secret, Tolerance: 5 * time.Minute},
	}
	mw := newTestMiddleware(cfg, nil)
	body := []byte(`{"templateId":"welcome","payload":{}}`)

	// Auth runs after body validation, which preserves the raw body.
	handler := mw.BodyValidation(mw.Auth(okHandler))

	post := func(sig string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(string(body)))
		r.Header.Set("Content-Type", "application/json")
		if sig != "" {
			r.Header.Set("x-mailer-signature", sig)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	t.Run("valid signature", func(t *testing.T) {
		w := post(signature.Sign(body, secret, time.Now()))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("expired signature", func(t *testing.T) {
		w := post(signature.Sign(body, secret, time.Now().Add(-6*time.Minute)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid signature")
	})

	t.Run("missing header reports the same error", func(t *testing.T) {
		w := post("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid signature")
	})

	t.Run("signature over different body", func(t *testing.T) {
		w := post(signature.Sign([]byte(`{"templateId":"other"}`), secret, time.Now()))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRecover(t *testing.T) {
	t.Parallel()

	mw := newTestMiddleware(&config.Config{}, nil)
	handler := mw.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestAuditSetsRequestID(t *testing.T) {
	t.Parallel()

	mw := newTestMiddleware(&config.Config{}, nil)
	handler := mw.Audit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, RequestIDFrom(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates id", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("echoes provided id", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set("X-Request-ID", "fixed-id")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
	})
}

func TestAuditEvent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "authentication_failed", auditEvent(401, 0, 0))
	assert.Equal(t, "access_denied", auditEvent(403, 0, 0))
	assert.Equal(t, "rate_limit_exceeded", auditEvent(429, 0, 0))
	assert.Equal(t, "large_request", auditEvent(200, 200*1024, 0))
	assert.Equal(t, "slow_request", auditEvent(200, 0, 2*time.Second))
	assert.Equal(t, "", auditEvent(200, 0, 100*time.Millisecond))
}
