package render

import (
	"fmt"
	"os"

	"github.com/blockqueue/mailer/internal/logger"
)

// HTML renders a plain HTML template with placeholder substitution.
type HTML struct {
	log *logger.Logger
}

// Render implements Renderer.
func (h *HTML) Render(templatePath string, payload map[string]any) (string, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return substitute(string(content), payload, h.log), nil
}
