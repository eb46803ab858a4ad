package handler

import (
	"errors"
	"net/http"

	"github.com/blockqueue/mailer/internal/middleware"
	"github.com/blockqueue/mailer/internal/service"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

// Send dispatches an email from a template and a validated request body.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	req := middleware.ParsedBody(r.Context())
	if req == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing request body"})
		return
	}

	resp, err := h.svc.Send(r.Context(), req)
	if err != nil {
		var svcErr *service.Error
		if errors.As(err, &svcErr) {
			writeJSON(w, svcErr.Status, errorResponse{
				Error:   svcErr.Message,
				Details: svcErr.Details,
			})
			return
		}

		h.log.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFrom(r.Context())).
			Msg("send failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "internal server error",
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
