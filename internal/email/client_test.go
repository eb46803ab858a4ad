package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockqueue/mailer/internal/config"
)

func TestNewClient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ses", func(t *testing.T) {
		t.Parallel()
		c, err := NewClient(ctx, config.Account{
			Type: config.AccountSES, Region: "us-east-1",
			AccessKeyID: "k", SecretAccessKey: "s",
		})
		require.NoError(t, err)
		assert.IsType(t, &sesClient{}, c)
	})

	t.Run("zeptomail", func(t *testing.T) {
		t.Parallel()
		c, err := NewClient(ctx, config.Account{Type: config.AccountZeptomail, APIKey: "key"})
		require.NoError(t, err)
		assert.IsType(t, &zeptomailClient{}, c)
	})

	t.Run("smtp", func(t *testing.T) {
		t.Parallel()
		c, err := NewClient(ctx, config.Account{Type: config.AccountSMTP, Host: "h", Port: 25})
		require.NoError(t, err)
		assert.IsType(t, &smtpClient{}, c)
	})

	t.Run("unknown type fails", func(t *testing.T) {
		t.Parallel()
		_, err := NewClient(ctx, config.Account{Type: "pigeon"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown email client type")
	})
}

func TestZeptomailSend(t *testing.T) {
	t.Parallel()

	t.Run("success returns request id", func(t *testing.T) {
		t.Parallel()

		var got zeptoPayload
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"request_id":"req-123","message":"OK"}`))
		}))
		defer srv.Close()

		c := newZeptomailClient(config.Account{Type: config.AccountZeptomail, APIKey: "zepto-key"})
		c.endpoint = srv.URL

		res, err := c.Send(context.Background(), Options{
			From:    "noreply@example.com",
			To:      []string{"a@example.com", "b@example.com"},
			Subject: "Hello",
			HTML:    "<p>Hi</p>",
			ReplyTo: "support@example.com",
		})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "req-123", res.MessageID)

		assert.Equal(t, "zepto-key", auth)
		assert.Equal(t, "noreply@example.com", got.From.Address)
		require.Len(t, got.To, 2)
		assert.Equal(t, "b@example.com", got.To[1].EmailAddress.Address)
		require.Len(t, got.ReplyTo, 1)
		assert.Equal(t, "<p>Hi</p>", got.HTMLBody)
	})

	t.Run("api error surfaces message", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
		}))
		defer srv.Close()

		c := newZeptomailClient(config.Account{Type: config.AccountZeptomail, APIKey: "bad"})
		c.endpoint = srv.URL

		_, err := c.Send(context.Background(), Options{From: "a@b.c", To: []string{"d@e.f"}, Subject: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid api key")
	})
}

func TestBuildMIME(t *testing.T) {
	t.Parallel()

	t.Run("without attachments", func(t *testing.T) {
		t.Parallel()

		raw, err := buildMIME(Options{
			From:    "sender@example.com",
			To:      []string{"rcpt@example.com"},
			Subject: "Greetings",
			HTML:    "<p>Hello</p>",
		})
		require.NoError(t, err)
		msg := string(raw)
		assert.Contains(t, msg, "From: sender@example.com\r\n")
		assert.Contains(t, msg, "To: rcpt@example.com\r\n")
		assert.Contains(t, msg, "Subject: Greetings\r\n")
		assert.Contains(t, msg, `Content-Type: text/html; charset="UTF-8"`)
		assert.True(t, strings.HasSuffix(msg, "<p>Hello</p>"))
	})

	t.Run("with attachments", func(t *testing.T) {
		t.Parallel()

		raw, err := buildMIME(Options{
			From:    "sender@example.com",
			To:      []string{"rcpt@example.com"},
			Subject: "Report",
			HTML:    "<p>attached</p>",
			Attachments: []Attachment{
				{Filename: "report.csv", ContentType: "text/csv", Content: []byte("a,b\n1,2")},
			},
		})
		require.NoError(t, err)
		msg := string(raw)
		assert.Contains(t, msg, "multipart/mixed")
		assert.Contains(t, msg, `attachment; filename="report.csv"`)
		assert.Contains(t, msg, "Content-Transfer-Encoding: base64")
	})
}
