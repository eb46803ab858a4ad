package service

import (
	"fmt"

	"github.com/blockqueue/mailer/internal/config"
	"github.com/blockqueue/mailer/internal/model"
	"github.com/blockqueue/mailer/internal/template"
)

// resolveAccount picks the account id with request > template > global
// default precedence and looks it up in the configured account map.
func (s *Service) resolveAccount(req *model.SendRequest, tmpl *template.Template) (string, config.Account, error) {
	id := req.Account
	if id == "" {
		id = tmpl.Account
	}
	if id == "" {
		id = s.cfg.Defaults.Account
	}
	if id == "" {
		return "", config.Account{}, badRequest("no account specified and no default account configured")
	}
	account, ok := s.cfg.Accounts[id]
	if !ok {
		return "", config.Account{}, badRequest(fmt.Sprintf("account not found: %s", id))
	}
	return id, account, nil
}

// resolveRenderer picks the renderer id with template > global default
// precedence.
func (s *Service) resolveRenderer(tmpl *template.Template) (string, error) {
	id := tmpl.Renderer
	if id == "" {
		id = s.cfg.Defaults.Renderer
	}
	if id == "" {
		return "", badRequest("no renderer specified")
	}
	return id, nil
}
