// Package template loads per-template descriptors at startup.
//
// Each template lives in its own directory under the templates dir:
//
//	templates/welcome/template.yaml
//	templates/welcome/index.html
//
// The descriptor names the renderer, an optional account, default send
// fields, and a JSON-Schema for the expected payload. Directories
// prefixed with "_" are skipped (shared assets).
package template

import "fmt"

// Renderer ids matched against template descriptors.
const (
	RendererHTML     = "html"
	RendererMJML     = "mjml"
	RendererMarkdown = "markdown"
)

// templateFile maps a renderer id to the template file it consumes.
var templateFile = map[string]string{
	RendererHTML:     "index.html",
	RendererMJML:     "index.mjml",
	RendererMarkdown: "index.md",
}

// Template is one loaded template descriptor plus the resolved path of
// its template file.
type Template struct {
	ID       string         `yaml:"id"`
	Renderer string         `yaml:"renderer"`
	Account  string         `yaml:"account"`
	From     string         `yaml:"from"`
	Subject  string         `yaml:"subject"`
	Schema   map[string]any `yaml:"schema"`

	// Path is the absolute path of the template file, derived from the
	// renderer; not part of the descriptor.
	Path string `yaml:"-"`
}

func (t *Template) validate(dirName string) error {
	if t.ID == "" {
		return fmt.Errorf("missing required field: id")
	}
	if t.ID != dirName {
		return fmt.Errorf("template id %q does not match directory name %q", t.ID, dirName)
	}
	if t.Renderer != "" {
		if _, ok := templateFile[t.Renderer]; !ok {
			return fmt.Errorf("invalid renderer: %q", t.Renderer)
		}
	}
	if len(t.Schema) == 0 {
		return fmt.Errorf("missing required field: schema")
	}
	return nil
}
