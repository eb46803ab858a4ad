package handler

import (
	"encoding/json"
	"net/http"

	"github.com/blockqueue/mailer/internal/config"
	"github.com/blockqueue/mailer/internal/logger"
	"github.com/blockqueue/mailer/internal/service"
	"github.com/blockqueue/mailer/internal/template"
)

// Handler holds all HTTP handlers
type Handler struct {
	cfg       *config.Config
	svc       *service.Service
	templates *template.Set
	log       *logger.Logger
}

// New creates a new Handler instance
func New(cfg *config.Config, svc *service.Service, templates *template.Set, log *logger.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		svc:       svc,
		templates: templates,
		log:       log.WithComponent("handler"),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
