package service

import (
	"strings"

	"github.com/blockqueue/mailer/internal/config"
	"github.com/blockqueue/mailer/internal/model"
	"github.com/blockqueue/mailer/internal/template"
)

// mergeSendOptions builds the effective send options from three tiers:
// account defaults < template defaults < request overrides. The merge
// is field-wise: a higher tier replaces a field only with a present,
// non-empty value, so an empty string or empty array on the request
// never erases a template or account default.
func mergeSendOptions(account config.Account, tmpl *template.Template, req *model.SendOptions) model.SendOptions {
	var merged model.SendOptions

	// Tier 1: account-level defaults.
	applyString(&merged.From, account.From)

	// Tier 2: template-level defaults.
	applyString(&merged.From, tmpl.From)
	applyString(&merged.Subject, tmpl.Subject)

	// Tier 3: request overrides.
	if req != nil {
		applyString(&merged.From, req.From)
		applyString(&merged.Subject, req.Subject)
		applyString(&merged.ReplyTo, req.ReplyTo)
		applyList(&merged.To, req.To)
		applyList(&merged.Cc, req.Cc)
		applyList(&merged.Bcc, req.Bcc)
		if len(req.Attachments) > 0 {
			merged.Attachments = req.Attachments
		}
	}
	return merged
}

func applyString(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}

func applyList(dst *model.StringList, value model.StringList) {
	if len(value) > 0 {
		*dst = value
	}
}
