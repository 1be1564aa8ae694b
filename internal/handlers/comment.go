package handlers

import (
	"net/http"

	"github.com/good-deeds/board/internal/metrics"
	"github.com/good-deeds/board/internal/service"
)

// CommentHandler adds comments to markers.
type CommentHandler struct {
	Service *service.Service
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// AddComment handles POST /add_comment with {marker_id, text}.
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var input struct {
		MarkerID int `json:"marker_id" validate:"required,gt=0"`
		commentRequest
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}
	h.add(w, r, input.MarkerID, input.Text, http.StatusOK)
}

// CreateComment handles POST /api/markers/{id}/comments with {text}.
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		JSONError(w, "invalid marker id", http.StatusBadRequest)
		return
	}
	var input commentRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}
	h.add(w, r, id, input.Text, http.StatusCreated)
}

func (h *CommentHandler) add(w http.ResponseWriter, r *http.Request, markerID int, text string, status int) {
	c, err := h.Service.AddComment(r.Context(), currentUserID(r), markerID, text)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	metrics.IncCommentsCreated()
	JSONSuccess(w, status, map[string]any{"comment_id": c.ID})
}
