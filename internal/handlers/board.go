package handlers

import (
	"net/http"

	"github.com/good-deeds/board/internal/models"
	"github.com/good-deeds/board/internal/service"
)

// BoardHandler serves the rating and search JSON endpoints.
type BoardHandler struct {
	Service *service.Service
}

func (h *BoardHandler) Rating(w http.ResponseWriter, r *http.Request) {
	rating, err := h.Service.Rating(r.Context())
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSONSuccess(w, http.StatusOK, map[string]any{"rating": rating})
}

func (h *BoardHandler) Search(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	if res.Users == nil {
		res.Users = []models.User{}
	}
	if res.Markers == nil {
		res.Markers = []models.Marker{}
	}
	JSONSuccess(w, http.StatusOK, map[string]any{"query": res.Query, "users": res.Users, "markers": res.Markers})
}

// SetLocation handles POST /api/location with {city}.
func (h *BoardHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	var input struct {
		City string `json:"city" validate:"required,max=100"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}
	c, err := h.Service.SetLocation(r.Context(), currentUserID(r), input.City)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSONSuccess(w, http.StatusOK, map[string]any{"city": input.City, "lat": c.Lat, "lng": c.Lng})
}
