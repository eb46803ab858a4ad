package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/blockqueue/mailer/internal/logger"
)

// MJML renders an MJML template by substituting placeholders and
// compiling the result through the MJML render API.
type MJML struct {
	endpoint string
	appID    string
	secret   string
	client   *http.Client
	log      *logger.Logger
}

type mjmlRequest struct {
	MJML string `json:"mjml"`
}

type mjmlResponse struct {
	HTML   string      `json:"html"`
	Errors []mjmlError `json:"errors"`
}

type mjmlError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
	TagName string `json:"tagName"`
}

// Render implements Renderer.
func (m *MJML) Render(templatePath string, payload map[string]any) (string, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	source := substitute(string(content), payload, m.log)

	body, err := json.Marshal(mjmlRequest{MJML: source})
	if err != nil {
		return "", fmt.Errorf("failed to encode mjml request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build mjml request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.appID != "" {
		req.SetBasicAuth(m.appID, m.secret)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mjml render request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read mjml response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mjml render API returned status %d: %s", resp.StatusCode, raw)
	}

	var result mjmlResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("failed to decode mjml response: %w", err)
	}
	for _, e := range result.Errors {
		m.log.Warn().Int("line", e.Line).Str("tag", e.TagName).Str("message", e.Message).Msg("mjml compilation warning")
	}
	return result.HTML, nil
}
