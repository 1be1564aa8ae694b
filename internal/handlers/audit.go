package handlers

import (
	"net/http"

	"github.com/good-deeds/board/internal/models"
	"github.com/good-deeds/board/internal/service"
)

// AuditHandler serves audit log endpoints.
type AuditHandler struct {
	Service *service.Service
}

// ListAudit returns recent audit log entries. Query: limit (default 50, max 200), offset (default 0).
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.AuditLog(r.Context(), queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	JSONSuccess(w, http.StatusOK, map[string]any{"entries": entries})
}
