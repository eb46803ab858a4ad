// Package render turns a template file plus a request payload into
// email HTML. Variants are keyed by renderer id: "html" substitutes
// placeholders into an HTML file, "mjml" additionally compiles MJML
// through a render API, "markdown" converts Markdown to HTML.
package render

import (
	"fmt"
	"net/http"
	"time"

	"github.com/blockqueue/mailer/internal/config"
	"github.com/blockqueue/mailer/internal/logger"
	"github.com/blockqueue/mailer/internal/template"
)

// Renderer converts a template file and payload into HTML.
type Renderer interface {
	Render(templatePath string, payload map[string]any) (string, error)
}

// Registry holds one renderer instance per configured id.
type Registry struct {
	renderers map[string]Renderer
}

// NewRegistry builds the renderer set. The MJML renderer shares one
// HTTP client for all requests.
func NewRegistry(mjml config.MJMLConfig, log *logger.Logger) *Registry {
	return &Registry{
		renderers: map[string]Renderer{
			template.RendererHTML: &HTML{log: log},
			template.RendererMJML: &MJML{
				endpoint: mjml.Endpoint,
				appID:    mjml.ApplicationID,
				secret:   mjml.SecretKey,
				client:   &http.Client{Timeout: 30 * time.Second},
				log:      log,
			},
			template.RendererMarkdown: &Markdown{log: log},
		},
	}
}

// Get returns the renderer for the given id. An unknown id is a
// configuration error and fails loudly.
func (r *Registry) Get(kind string) (Renderer, error) {
	renderer, ok := r.renderers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown renderer type: %q", kind)
	}
	return renderer, nil
}
