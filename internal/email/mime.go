package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// buildMIME composes a full RFC 2822 message for transports that take
// raw message bytes (SES raw path, Gmail API).
func buildMIME(opts Options) ([]byte, error) {
	var buf bytes.Buffer

	writeHeader := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&buf, "%s: %s\r\n", name, value)
		}
	}
	writeHeader("From", opts.From)
	writeHeader("To", strings.Join(opts.To, ", "))
	writeHeader("Cc", strings.Join(opts.Cc, ", "))
	writeHeader("Bcc", strings.Join(opts.Bcc, ", "))
	writeHeader("Reply-To", opts.ReplyTo)
	writeHeader("Subject", opts.Subject)
	writeHeader("MIME-Version", "1.0")

	if len(opts.Attachments) == 0 {
		writeHeader("Content-Type", `text/html; charset="UTF-8"`)
		buf.WriteString("\r\n")
		buf.WriteString(opts.HTML)
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	writeHeader("Content-Type", `multipart/mixed; boundary="`+writer.Boundary()+`"`)
	buf.WriteString("\r\n")

	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", `text/html; charset="UTF-8"`)
	htmlPart, err := writer.CreatePart(htmlHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to compose message body: %w", err)
	}
	if _, err := htmlPart.Write([]byte(opts.HTML)); err != nil {
		return nil, fmt.Errorf("failed to compose message body: %w", err)
	}

	for _, att := range opts.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", contentType)
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to compose attachment %q: %w", att.Filename, err)
		}
		encoded := base64.StdEncoding.EncodeToString(att.Content)
		if _, err := part.Write([]byte(encoded)); err != nil {
			return nil, fmt.Errorf("failed to compose attachment %q: %w", att.Filename, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}
