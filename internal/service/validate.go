package service

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/blockqueue/mailer/internal/model"
)

// validateAddresses checks every email field of the merged options,
// collecting all invalid values per field before failing with one
// combined error. Missing required fields fail first.
func validateAddresses(opts model.SendOptions) error {
	if strings.TrimSpace(opts.From) == "" {
		return badRequest("missing required field: 'from' in sendMailOptions; provide it in request.sendMailOptions, template.from, or account.from")
	}
	if len(opts.To) == 0 {
		return badRequest("missing required field: 'to' in sendMailOptions")
	}
	if strings.TrimSpace(opts.Subject) == "" {
		return badRequest("missing required field: 'subject' in sendMailOptions")
	}

	fields := []struct {
		name   string
		single bool
		values []string
	}{
		{"from", true, []string{opts.From}},
		{"to", false, opts.To},
		{"cc", false, opts.Cc},
		{"bcc", false, opts.Bcc},
		{"replyTo", true, replyToValues(opts.ReplyTo)},
	}

	var errs []string
	for _, field := range fields {
		var invalid []string
		for _, value := range field.values {
			if !isValidEmail(value) {
				invalid = append(invalid, value)
			}
		}
		if len(invalid) > 0 {
			label := "addresses"
			if field.single {
				label = "address"
			}
			errs = append(errs, fmt.Sprintf("invalid '%s' %s: %s", field.name, label, strings.Join(invalid, ", ")))
		}
	}

	if len(errs) > 0 {
		return badRequest("email validation failed: " + strings.Join(errs, "; "))
	}
	return nil
}

func replyToValues(replyTo string) []string {
	if replyTo == "" {
		return nil
	}
	return []string{replyTo}
}

func isValidEmail(address string) bool {
	parsed, err := mail.ParseAddress(address)
	return err == nil && parsed.Address == address
}
