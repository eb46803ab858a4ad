package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blockqueue/mailer/internal/config"
	"github.com/blockqueue/mailer/internal/logger"
)

// Failure records one template that could not be loaded.
type Failure struct {
	ID  string
	Err error
}

// Set holds all templates loaded at startup, keyed by template id.
// It is immutable after Load returns; reads need no locking.
type Set struct {
	templates map[string]*Template
	failures  []Failure
}

// Load reads every template directory under dir. A template that fails
// to load is recorded and skipped; one bad template does not prevent
// the rest from loading or the server from starting.
func Load(dir, defaultRenderer string, log *logger.Logger) (*Set, error) {
	set := &Set{templates: make(map[string]*Template)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("dir", dir).Msg("templates directory not found")
			return set, nil
		}
		return nil, fmt.Errorf("failed to read templates directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), "_") {
			continue
		}
		tmpl, err := loadOne(filepath.Join(dir, entry.Name()), entry.Name(), defaultRenderer)
		if err != nil {
			log.Error().Err(err).Str("template", entry.Name()).Msg("failed to load template")
			set.failures = append(set.failures, Failure{ID: entry.Name(), Err: err})
			continue
		}
		set.templates[tmpl.ID] = tmpl
		log.Info().Str("template", tmpl.ID).Str("renderer", tmpl.Renderer).Msg("loaded template")
	}

	if len(set.templates) == 0 && len(set.failures) > 0 {
		log.Error().
			Int("failures", len(set.failures)).
			Msg("no templates loaded; server will start but email sending will fail")
	} else {
		log.Info().Int("count", len(set.templates)).Msg("templates loaded")
	}
	return set, nil
}

func loadOne(templateDir, dirName, defaultRenderer string) (*Template, error) {
	raw, err := os.ReadFile(filepath.Join(templateDir, "template.yaml"))
	if err != nil {
		return nil, fmt.Errorf("template config not found: %w", err)
	}

	expanded, err := config.ExpandEnv(raw)
	if err != nil {
		return nil, err
	}

	var tmpl Template
	if err := yaml.Unmarshal(expanded, &tmpl); err != nil {
		return nil, fmt.Errorf("invalid template.yaml: %w", err)
	}
	if err := tmpl.validate(dirName); err != nil {
		return nil, err
	}

	// The renderer that will process this template decides which file
	// must exist alongside the descriptor.
	renderer := tmpl.Renderer
	if renderer == "" {
		renderer = defaultRenderer
	}
	file, ok := templateFile[renderer]
	if !ok {
		file = templateFile[RendererHTML]
	}
	tmpl.Path = filepath.Join(templateDir, file)
	if _, err := os.Stat(tmpl.Path); err != nil {
		return nil, fmt.Errorf("template file not found: %s", tmpl.Path)
	}
	return &tmpl, nil
}

// Get returns the template with the given id, or nil.
func (s *Set) Get(id string) *Template {
	return s.templates[id]
}

// Len returns the number of loaded templates.
func (s *Set) Len() int {
	return len(s.templates)
}

// Failures returns the templates that failed to load.
func (s *Set) Failures() []Failure {
	return s.failures
}
