package mailer

// SendRequest describes one dispatch: the template to render, the
// payload bound into it, and optional per-request overrides.
type SendRequest struct {
	TemplateID      string         `json:"templateId"`
	Account         string         `json:"account,omitempty"`
	Payload         map[string]any `json:"payload"`
	SendMailOptions *SendOptions   `json:"sendMailOptions,omitempty"`
}

// SendOptions override the account and template defaults for one send.
type SendOptions struct {
	From        string       `json:"from,omitempty"`
	To          []string     `json:"to,omitempty"`
	Subject     string       `json:"subject,omitempty"`
	Cc          []string     `json:"cc,omitempty"`
	Bcc         []string     `json:"bcc,omitempty"`
	ReplyTo     string       `json:"replyTo,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a file attached to the outgoing email. Content holds
// the raw text, or base64 when Encoding is "base64".
type Attachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"contentType,omitempty"`
	Encoding    string `json:"encoding,omitempty"`
}

// SendResponse reports the provider's message id for a dispatched email.
type SendResponse struct {
	MessageID string `json:"messageId"`
	Success   bool   `json:"success"`
}

// HealthResponse reports gateway liveness and the number of templates
// currently loaded.
type HealthResponse struct {
	Status    string `json:"status"`
	Templates int    `json:"templates"`
}
