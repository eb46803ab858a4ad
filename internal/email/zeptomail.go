package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blockqueue/mailer/internal/config"
)

const zeptomailEndpoint = "https://api.zeptomail.com/v1.1/email"

// zeptomailClient sends email through the Zeptomail HTTP API.
type zeptomailClient struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
	bounce     string
}

func newZeptomailClient(account config.Account) *zeptomailClient {
	return &zeptomailClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     account.APIKey,
		endpoint:   zeptomailEndpoint,
		bounce:     account.BounceAddress,
	}
}

type zeptoAddress struct {
	Address string `json:"address"`
}

type zeptoRecipient struct {
	EmailAddress zeptoAddress `json:"email_address"`
}

type zeptoAttachment struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	MimeType string `json:"mime_type,omitempty"`
}

type zeptoPayload struct {
	From          zeptoAddress      `json:"from"`
	To            []zeptoRecipient  `json:"to"`
	Cc            []zeptoRecipient  `json:"cc,omitempty"`
	Bcc           []zeptoRecipient  `json:"bcc,omitempty"`
	ReplyTo       []zeptoAddress    `json:"reply_to,omitempty"`
	Subject       string            `json:"subject"`
	HTMLBody      string            `json:"htmlbody"`
	BounceAddress string            `json:"bounce_address,omitempty"`
	Attachments   []zeptoAttachment `json:"attachments,omitempty"`
}

type zeptoResponse struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func recipients(addrs []string) []zeptoRecipient {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]zeptoRecipient, len(addrs))
	for i, addr := range addrs {
		out[i] = zeptoRecipient{EmailAddress: zeptoAddress{Address: addr}}
	}
	return out
}

// Send implements Client.
func (c *zeptomailClient) Send(ctx context.Context, opts Options) (Result, error) {
	payload := zeptoPayload{
		From:          zeptoAddress{Address: opts.From},
		To:            recipients(opts.To),
		Cc:            recipients(opts.Cc),
		Bcc:           recipients(opts.Bcc),
		Subject:       opts.Subject,
		HTMLBody:      opts.HTML,
		BounceAddress: c.bounce,
	}
	if opts.ReplyTo != "" {
		payload.ReplyTo = []zeptoAddress{{Address: opts.ReplyTo}}
	}
	for _, att := range opts.Attachments {
		payload.Attachments = append(payload.Attachments, zeptoAttachment{
			Name:     att.Filename,
			Content:  base64.StdEncoding.EncodeToString(att.Content),
			MimeType: att.ContentType,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode zeptomail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build zeptomail request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("zeptomail request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read zeptomail response: %w", err)
	}

	var decoded zeptoResponse
	// The error path below falls back to the raw body when the
	// response is not JSON.
	_ = json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decoded.Error != nil && decoded.Error.Message != "" {
			return Result{}, fmt.Errorf("zeptomail API error: %s", decoded.Error.Message)
		}
		return Result{}, fmt.Errorf("zeptomail API error: status %d: %s", resp.StatusCode, raw)
	}

	return Result{MessageID: decoded.RequestID, Success: true}, nil
}

// Close implements Client.
func (c *zeptomailClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
