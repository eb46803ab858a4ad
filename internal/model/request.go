// Package model defines the wire types of the dispatch API.
package model

import (
	"encoding/json"
	"fmt"
)

// SendRequest is the body of POST /send. It is constructed once from
// the validated request body and discarded after the response.
type SendRequest struct {
	TemplateID      string         `json:"templateId"`
	Account         string         `json:"account,omitempty"`
	Payload         map[string]any `json:"payload"`
	SendMailOptions *SendOptions   `json:"sendMailOptions,omitempty"`
}

// SendResponse is the success body of POST /send.
type SendResponse struct {
	MessageID string `json:"messageId"`
	Success   bool   `json:"success"`
}

// SendOptions carries the overridable send fields. The same struct
// holds account defaults, template defaults, request overrides, and
// the merged result.
type SendOptions struct {
	From        string       `json:"from,omitempty"`
	To          StringList   `json:"to,omitempty"`
	Subject     string       `json:"subject,omitempty"`
	Cc          StringList   `json:"cc,omitempty"`
	Bcc         StringList   `json:"bcc,omitempty"`
	ReplyTo     string       `json:"replyTo,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is one request-supplied attachment. Content is either the
// literal data or base64 when encoding says so.
type Attachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"contentType,omitempty"`
	Encoding    string `json:"encoding,omitempty"`
}

// StringList accepts either a single JSON string or an array of
// strings, mirroring the flexible to/cc/bcc fields of the original
// wire format.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or array of strings")
	}
	*l = StringList(many)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l StringList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(l))
}
