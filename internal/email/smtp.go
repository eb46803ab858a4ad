package email

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/blockqueue/mailer/internal/config"
)

// smtpClient sends email through a plain SMTP relay.
type smtpClient struct {
	dialer *gomail.Dialer
}

func newSMTPClient(account config.Account) *smtpClient {
	return &smtpClient{
		dialer: gomail.NewDialer(account.Host, account.Port, account.Username, account.Password),
	}
}

// Send implements Client. SMTP has no provider-side message id, so a
// generated one is returned for response symmetry with the API-based
// providers.
func (c *smtpClient) Send(ctx context.Context, opts Options) (Result, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", opts.From)
	m.SetHeader("To", opts.To...)
	if len(opts.Cc) > 0 {
		m.SetHeader("Cc", opts.Cc...)
	}
	if len(opts.Bcc) > 0 {
		m.SetHeader("Bcc", opts.Bcc...)
	}
	if opts.ReplyTo != "" {
		m.SetHeader("Reply-To", opts.ReplyTo)
	}
	m.SetHeader("Subject", opts.Subject)
	m.SetBody("text/html", opts.HTML)

	for _, att := range opts.Attachments {
		content := att.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if att.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {att.ContentType},
			}))
		}
		m.Attach(att.Filename, settings...)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := c.dialer.DialAndSend(m); err != nil {
		return Result{}, fmt.Errorf("failed to send email via SMTP: %w", err)
	}
	return Result{MessageID: uuid.New().String(), Success: true}, nil
}

// Close implements Client. DialAndSend closes its connection per call.
func (c *smtpClient) Close() error {
	return nil
}
