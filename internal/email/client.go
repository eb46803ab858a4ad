// Package email delivers rendered messages through a configured
// provider. Clients are created per request from the resolved account
// and closed after the send, on success and failure alike.
package email

import (
	"context"
	"fmt"

	"github.com/blockqueue/mailer/internal/config"
)

// Options is the final, merged set of send fields handed to a client.
type Options struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Cc          []string
	Bcc         []string
	ReplyTo     string
	Attachments []Attachment
}

// Attachment is one in-memory attachment.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Result reports the provider's acknowledgement of a send.
type Result struct {
	MessageID string
	Success   bool
}

// Client is the interface all provider transports implement. This
// abstraction allows swapping providers without changing the dispatch
// logic.
type Client interface {
	// Send delivers an email and returns the provider's message id.
	Send(ctx context.Context, opts Options) (Result, error)
	// Close releases any connection resources held by the client.
	Close() error
}

// NewClient creates a transport client for the given account. The
// switch is exhaustive over the configured account types; an
// unrecognized type fails loudly.
func NewClient(ctx context.Context, account config.Account) (Client, error) {
	switch account.Type {
	case config.AccountSES:
		return newSESClient(account), nil
	case config.AccountZeptomail:
		return newZeptomailClient(account), nil
	case config.AccountSMTP:
		return newSMTPClient(account), nil
	case config.AccountGmail:
		return newGmailClient(ctx, account)
	default:
		return nil, fmt.Errorf("unknown email client type: %q", account.Type)
	}
}
