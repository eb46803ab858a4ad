package email

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/blockqueue/mailer/internal/config"
)

// gmailClient sends email through the Gmail API. It supports a service
// account with domain-wide delegation (credentialsJson) or OAuth2
// client credentials with a refresh token.
type gmailClient struct {
	service *gmail.Service
}

func newGmailClient(ctx context.Context, account config.Account) (*gmailClient, error) {
	var svc *gmail.Service
	var err error

	if account.CredentialsJSON != "" {
		jwtConfig, jwtErr := google.JWTConfigFromJSON([]byte(account.CredentialsJSON), gmail.GmailSendScope)
		if jwtErr != nil {
			return nil, fmt.Errorf("gmail: failed to parse credentials: %w", jwtErr)
		}
		// Domain-wide delegation: impersonate the sender mailbox.
		jwtConfig.Subject = account.From
		svc, err = gmail.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	} else {
		oauthCfg := &oauth2.Config{
			ClientID:     account.ClientID,
			ClientSecret: account.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailSendScope},
		}
		token := &oauth2.Token{RefreshToken: account.RefreshToken}
		svc, err = gmail.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, token)))
	}
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}
	return &gmailClient{service: svc}, nil
}

// Send implements Client.
func (c *gmailClient) Send(ctx context.Context, opts Options) (Result, error) {
	raw, err := buildMIME(opts)
	if err != nil {
		return Result{}, err
	}

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}
	sent, err := c.service.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return Result{}, fmt.Errorf("failed to send email via Gmail: %w", err)
	}
	return Result{MessageID: sent.Id, Success: true}, nil
}

// Close implements Client.
func (c *gmailClient) Close() error {
	return nil
}
