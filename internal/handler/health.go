package handler

import (
	"net/http"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Templates int    `json:"templates"`
}

// Health reports service liveness and the number of loaded templates.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Templates: h.templates.Len(),
	})
}
