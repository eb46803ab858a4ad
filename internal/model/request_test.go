package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequestDecoding(t *testing.T) {
	t.Parallel()

	t.Run("to as single string", func(t *testing.T) {
		t.Parallel()

		var req SendRequest
		err := json.Unmarshal([]byte(`{
			"templateId": "welcome",
			"payload": {"userName": "Ada"},
			"sendMailOptions": {"to": "one@example.com"}
		}`), &req)
		require.NoError(t, err)
		assert.Equal(t, "welcome", req.TemplateID)
		require.NotNil(t, req.SendMailOptions)
		assert.Equal(t, StringList{"one@example.com"}, req.SendMailOptions.To)
	})

	t.Run("to as array", func(t *testing.T) {
		t.Parallel()

		var req SendRequest
		err := json.Unmarshal([]byte(`{
			"templateId": "welcome",
			"payload": {},
			"sendMailOptions": {"to": ["a@example.com", "b@example.com"], "cc": "c@example.com"}
		}`), &req)
		require.NoError(t, err)
		assert.Equal(t, StringList{"a@example.com", "b@example.com"}, req.SendMailOptions.To)
		assert.Equal(t, StringList{"c@example.com"}, req.SendMailOptions.Cc)
	})

	t.Run("to as number fails", func(t *testing.T) {
		t.Parallel()

		var req SendRequest
		err := json.Unmarshal([]byte(`{"templateId":"x","sendMailOptions":{"to": 7}}`), &req)
		require.Error(t, err)
	})

	t.Run("attachments", func(t *testing.T) {
		t.Parallel()

		var req SendRequest
		err := json.Unmarshal([]byte(`{
			"templateId": "report",
			"payload": {},
			"sendMailOptions": {
				"attachments": [{"filename": "r.csv", "content": "YSxi", "contentType": "text/csv", "encoding": "base64"}]
			}
		}`), &req)
		require.NoError(t, err)
		require.Len(t, req.SendMailOptions.Attachments, 1)
		assert.Equal(t, "r.csv", req.SendMailOptions.Attachments[0].Filename)
		assert.Equal(t, "base64", req.SendMailOptions.Attachments[0].Encoding)
	})
}
