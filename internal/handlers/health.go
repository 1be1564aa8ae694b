package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/good-deeds/board/internal/service"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	Service *service.Service
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready fails with 503 while the store does not answer within two seconds.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.Service.Ready(ctx); err != nil {
		logInternal(r, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
