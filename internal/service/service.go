// Package service implements the dispatch pipeline behind POST /send:
// it resolves the effective account, renderer, and send options for a
// validated request, renders the template, and hands the message to
// the provider transport.
package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/blockqueue/mailer/internal/config"
	"github.com/blockqueue/mailer/internal/email"
	"github.com/blockqueue/mailer/internal/logger"
	"github.com/blockqueue/mailer/internal/model"
	"github.com/blockqueue/mailer/internal/render"
	"github.com/blockqueue/mailer/internal/template"
)

// Service is the dispatch orchestrator. Configuration and templates
// are immutable after startup, so Service is safe for concurrent use.
type Service struct {
	cfg       *config.Config
	templates *template.Set
	renderers *render.Registry
	log       *logger.Logger

	// newClient is swapped out in tests.
	newClient func(ctx context.Context, account config.Account) (email.Client, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithClientFactory overrides how provider transports are constructed.
func WithClientFactory(fn func(ctx context.Context, account config.Account) (email.Client, error)) Option {
	return func(s *Service) { s.newClient = fn }
}

// New creates the dispatch service.
func New(cfg *config.Config, templates *template.Set, renderers *render.Registry, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		templates: templates,
		renderers: renderers,
		log:       log.WithComponent("service"),
		newClient: email.NewClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send runs the full dispatch flow for one validated request. All
// user-facing failures are returned as *Error with an HTTP status;
// anything else is an internal error.
func (s *Service) Send(ctx context.Context, req *model.SendRequest) (*model.SendResponse, error) {
	if req.TemplateID == "" {
		return nil, badRequest("missing required field: templateId")
	}
	if req.Payload == nil {
		return nil, badRequest("missing required field: payload")
	}

	tmpl := s.templates.Get(req.TemplateID)
	if tmpl == nil {
		return nil, notFound(fmt.Sprintf("template not found: %s", req.TemplateID))
	}

	if violations := validatePayload(tmpl.Schema, req.Payload); len(violations) > 0 {
		return nil, &Error{
			Status:  http.StatusBadRequest,
			Message: "payload validation failed",
			Details: violations,
		}
	}

	accountID, account, err := s.resolveAccount(req, tmpl)
	if err != nil {
		return nil, err
	}

	rendererID, err := s.resolveRenderer(tmpl)
	if err != nil {
		return nil, err
	}
	renderer, err := s.renderers.Get(rendererID)
	if err != nil {
		// Renderer ids are validated at startup; reaching this is a
		// wiring bug, not caller error.
		return nil, err
	}

	opts := mergeSendOptions(account, tmpl, req.SendMailOptions)
	if err := validateAddresses(opts); err != nil {
		return nil, err
	}

	attachments, err := decodeAttachments(opts.Attachments)
	if err != nil {
		return nil, err
	}

	html, err := renderer.Render(tmpl.Path, req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to render template %q: %w", req.TemplateID, err)
	}

	client, err := s.newClient(ctx, account)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			s.log.Warn().Err(cerr).Str("account", accountID).Msg("failed to close email client")
		}
	}()

	result, err := client.Send(ctx, email.Options{
		From:        opts.From,
		To:          opts.To,
		Subject:     opts.Subject,
		HTML:        html,
		Cc:          opts.Cc,
		Bcc:         opts.Bcc,
		ReplyTo:     opts.ReplyTo,
		Attachments: attachments,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	s.log.Info().
		Str("template", req.TemplateID).
		Str("account", accountID).
		Str("message_id", result.MessageID).
		Msg("email sent")

	return &model.SendResponse{MessageID: result.MessageID, Success: result.Success}, nil
}

// decodeAttachments converts request attachments into transport
// attachments, decoding base64 content when declared.
func decodeAttachments(specs []model.Attachment) ([]email.Attachment, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]email.Attachment, 0, len(specs))
	for _, spec := range specs {
		if spec.Filename == "" {
			return nil, badRequest("attachment is missing required field: filename")
		}
		content := []byte(spec.Content)
		if spec.Encoding == "base64" {
			decoded, err := base64.StdEncoding.DecodeString(spec.Content)
			if err != nil {
				return nil, badRequest(fmt.Sprintf("attachment %q: invalid base64 content", spec.Filename))
			}
			content = decoded
		}
		out = append(out, email.Attachment{
			Filename:    spec.Filename,
			ContentType: spec.ContentType,
			Content:     content,
		})
	}
	return out, nil
}
