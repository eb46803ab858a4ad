package mailer

import (
	"encoding/json"
	"fmt"
)

// ErrNoCredentials is returned when neither APIKey nor SigningSecret
// is configured.
var ErrNoCredentials = fmt.Errorf("mailer: no API key or signing secret configured")

// APIError represents an error response from the gateway.
type APIError struct {
	StatusCode int      `json:"-"`
	Message    string   `json:"error"`
	Details    []string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("mailer: API error %d: %s (%v)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("mailer: API error %d: %s", e.StatusCode, e.Message)
}

func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = string(body)
	}
	return apiErr
}
