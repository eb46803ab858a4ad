package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/blockqueue/mailer/internal/config"
)

// sesClient sends email through AWS SES.
type sesClient struct {
	client *sesv2.Client
}

func newSESClient(account config.Account) *sesClient {
	cfg := aws.Config{
		Region: account.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			account.AccessKeyID, account.SecretAccessKey, ""),
	}
	return &sesClient{client: sesv2.NewFromConfig(cfg)}
}

// Send implements Client. Messages without attachments use SES simple
// content; attachments require a raw MIME message.
func (c *sesClient) Send(ctx context.Context, opts Options) (Result, error) {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(opts.From),
		Destination: &types.Destination{
			ToAddresses:  opts.To,
			CcAddresses:  opts.Cc,
			BccAddresses: opts.Bcc,
		},
	}
	if opts.ReplyTo != "" {
		input.ReplyToAddresses = []string{opts.ReplyTo}
	}

	if len(opts.Attachments) == 0 {
		input.Content = &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(opts.Subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(opts.HTML)},
				},
			},
		}
	} else {
		raw, err := buildMIME(opts)
		if err != nil {
			return Result{}, err
		}
		input.Content = &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		}
	}

	out, err := c.client.SendEmail(ctx, input)
	if err != nil {
		return Result{}, fmt.Errorf("failed to send email via SES: %w", err)
	}
	return Result{MessageID: aws.ToString(out.MessageId), Success: true}, nil
}

// Close implements Client. The SES client holds no persistent
// connections.
func (c *sesClient) Close() error {
	return nil
}
