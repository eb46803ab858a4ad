// Package mailer is a self-contained Go client for the mailer gateway.
// It depends only on the standard library so it can be vendored into
// caller projects without pulling in the gateway's dependencies.
package mailer

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default auth header names, matching the gateway defaults.
const (
	DefaultAPIKeyHeader    = "x-mailer-api-key"
	DefaultSignatureHeader = "x-mailer-signature"
)

// Config holds the configuration for the mailer client.
type Config struct {
	// BaseURL is the root URL of the mailer gateway.
	// Example: "https://mail.example.com"
	BaseURL string

	// APIKey authenticates requests with a static key. Set either
	// APIKey or SigningSecret, not both.
	APIKey string

	// SigningSecret authenticates requests with an HMAC-SHA512
	// signature over the request body.
	SigningSecret string

	// Header overrides the auth header name. When empty, the default
	// for the configured auth mode is used.
	Header string

	// HTTPClient is an optional custom HTTP client.
	// If nil, a default client with 10s timeout is used.
	HTTPClient *http.Client
}

func (c *Config) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c.Header == "" {
		if c.SigningSecret != "" {
			c.Header = DefaultSignatureHeader
		} else {
			c.Header = DefaultAPIKeyHeader
		}
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
}

// Client is the mailer gateway client.
type Client struct {
	cfg Config

	// now is swapped out in tests.
	now func() time.Time
}

// NewClient creates a new mailer client with the given configuration.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{cfg: cfg, now: time.Now}
}

// Send renders the named template with the payload and dispatches the
// resulting email through the gateway.
func (c *Client) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	body, err := c.post(ctx, "/send", req)
	if err != nil {
		return nil, err
	}

	var resp SendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("mailer: failed to parse send response: %w", err)
	}
	return &resp, nil
}

// Health reports the gateway's health status.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("mailer: failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mailer: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mailer: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("mailer: failed to parse health response: %w", err)
	}
	return &health, nil
}

// post sends an authenticated POST request to the gateway.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("mailer: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("mailer: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	switch {
	case c.cfg.SigningSecret != "":
		req.Header.Set(c.cfg.Header, c.sign(data))
	case c.cfg.APIKey != "":
		req.Header.Set(c.cfg.Header, c.cfg.APIKey)
	default:
		return nil, ErrNoCredentials
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mailer: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mailer: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// sign produces a "t=<unix>,v1=<hex mac>" signature header over the
// request body, the format the gateway's hmac auth mode verifies.
func (c *Client) sign(body []byte) string {
	ts := c.now().Unix()
	mac := hmac.New(sha512.New, []byte(c.cfg.SigningSecret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
