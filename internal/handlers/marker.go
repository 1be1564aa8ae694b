package handlers

import (
	"net/http"

	"github.com/good-deeds/board/internal/metrics"
	"github.com/good-deeds/board/internal/models"
	"github.com/good-deeds/board/internal/service"
)

// ==========================
// MarkerHandler
// ==========================
type MarkerHandler struct {
	Service *service.Service
}

type markerRequest struct {
	HelpNeeded string   `json:"help_needed" validate:"required,max=200"`
	Offer      string   `json:"offer" validate:"max=200"`
	Location   string   `json:"location" validate:"required,max=200"`
	Deadline   string   `json:"deadline" validate:"required,datetime=2006-01-02"`
	Contact    string   `json:"contact" validate:"required,max=100"`
	Lat        *float64 `json:"lat" validate:"required,latitude"`
	Lng        *float64 `json:"lng" validate:"required,longitude"`
}

func (in markerRequest) input() service.MarkerInput {
	return service.MarkerInput{
		HelpNeeded: in.HelpNeeded,
		Offer:      in.Offer,
		Location:   in.Location,
		Deadline:   in.Deadline,
		Contact:    in.Contact,
		Lat:        in.Lat,
		Lng:        in.Lng,
	}
}

type markerEditRequest struct {
	HelpNeeded *string  `json:"help_needed" validate:"omitempty,max=200"`
	Offer      *string  `json:"offer" validate:"omitempty,max=200"`
	Location   *string  `json:"location" validate:"omitempty,max=200"`
	Deadline   *string  `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	Contact    *string  `json:"contact" validate:"omitempty,max=100"`
	Lat        *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng        *float64 `json:"lng" validate:"omitempty,longitude"`
}

func (in markerEditRequest) edit() service.MarkerEdit {
	return service.MarkerEdit{
		HelpNeeded: in.HelpNeeded,
		Offer:      in.Offer,
		Location:   in.Location,
		Deadline:   in.Deadline,
		Contact:    in.Contact,
		Lat:        in.Lat,
		Lng:        in.Lng,
	}
}

// ==========================
// Add Marker (POST /add_marker)
// ==========================
func (h *MarkerHandler) AddMarker(w http.ResponseWriter, r *http.Request) {
	m, ok := h.create(w, r)
	if !ok {
		return
	}
	JSONSuccess(w, http.StatusOK, map[string]any{"marker_id": m.ID})
}

// ==========================
// Edit Marker (POST /edit_marker)
// ==========================
func (h *MarkerHandler) EditMarker(w http.ResponseWriter, r *http.Request) {
	var input struct {
		MarkerID int `json:"marker_id" validate:"required,gt=0"`
		markerEditRequest
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}
	h.edit(w, r, input.MarkerID, input.markerEditRequest)
}

// ==========================
// Delete Marker (POST /delete_marker)
// ==========================
func (h *MarkerHandler) DeleteMarker(w http.ResponseWriter, r *http.Request) {
	var input struct {
		MarkerID int `json:"marker_id" validate:"required,gt=0"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}
	h.delete(w, r, input.MarkerID)
}

// ==========================
// JSON API: /api/markers
// ==========================

// ListMarkers returns active markers, optionally filtered by q.
func (h *MarkerHandler) ListMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := h.Service.ActiveMarkers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	if markers == nil {
		markers = []models.Marker{}
	}
	JSONSuccess(w, http.StatusOK, map[string]any{"markers": markers})
}

// GetMarker returns one marker with its comments, whatever its deadline.
func (h *MarkerHandler) GetMarker(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		JSONError(w, "invalid marker id", http.StatusBadRequest)
		return
	}
	detail, err := h.Service.MarkerDetail(r.Context(), id)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	if detail.Comments == nil {
		detail.Comments = []models.Comment{}
	}
	JSONSuccess(w, http.StatusOK, map[string]any{"marker": detail.Marker, "comments": detail.Comments})
}

func (h *MarkerHandler) CreateMarker(w http.ResponseWriter, r *http.Request) {
	m, ok := h.create(w, r)
	if !ok {
		return
	}
	JSONSuccess(w, http.StatusCreated, map[string]any{"marker_id": m.ID, "marker": m})
}

func (h *MarkerHandler) UpdateMarker(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		JSONError(w, "invalid marker id", http.StatusBadRequest)
		return
	}
	var input markerEditRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}
	h.edit(w, r, id, input)
}

func (h *MarkerHandler) RemoveMarker(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		JSONError(w, "invalid marker id", http.StatusBadRequest)
		return
	}
	h.delete(w, r, id)
}

// ==========================
// shared
// ==========================

func (h *MarkerHandler) create(w http.ResponseWriter, r *http.Request) (*models.Marker, bool) {
	var input markerRequest
	if !decodeAndValidate(w, r, &input) {
		return nil, false
	}
	m, err := h.Service.CreateMarker(r.Context(), currentUserID(r), input.input())
	if err != nil {
		ServiceError(w, r, err)
		return nil, false
	}
	metrics.IncMarkerChanges(models.AuditCreate)
	return m, true
}

func (h *MarkerHandler) edit(w http.ResponseWriter, r *http.Request, id int, input markerEditRequest) {
	m, err := h.Service.EditMarker(r.Context(), currentUserID(r), id, input.edit())
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	metrics.IncMarkerChanges(models.AuditUpdate)
	JSONSuccess(w, http.StatusOK, map[string]any{"marker": m})
}

func (h *MarkerHandler) delete(w http.ResponseWriter, r *http.Request, id int) {
	if err := h.Service.DeleteMarker(r.Context(), currentUserID(r), id); err != nil {
		ServiceError(w, r, err)
		return
	}
	metrics.IncMarkerChanges(models.AuditDelete)
	JSONSuccess(w, http.StatusOK, nil)
}
