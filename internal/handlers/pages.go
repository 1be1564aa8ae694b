package handlers

import (
	"errors"
	"net/http"

	"github.com/good-deeds/board/internal/apperr"
	"github.com/good-deeds/board/internal/auth"
	"github.com/good-deeds/board/internal/geo"
	"github.com/good-deeds/board/internal/models"
	"github.com/good-deeds/board/internal/service"
	"github.com/good-deeds/board/internal/web"
)

// PageHandler renders the HTML pages.
type PageHandler struct {
	Service  *service.Service
	Renderer *web.Renderer
}

type mapPage struct {
	Center  geo.Coordinates
	Markers []models.Marker
	Today   string
}

type announcementsPage struct {
	Query   string
	Markers []models.Marker
}

type announcementPage struct {
	Marker   *models.Marker
	Comments []models.Comment
	IsOwner  bool
}

type locationPage struct {
	City string
}

// Root sends signed-in users to the map and everyone else to the login form.
func (h *PageHandler) Root(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r.Context()); ok {
		http.Redirect(w, r, "/map", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "about", "О проекте", nil)
}

// Map shows active markers around the user's city.
func (h *PageHandler) Map(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentUser(r.Context())
	center, err := h.Service.MapCenter(r.Context(), me.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	markers, err := h.Service.ActiveMarkers(r.Context(), "")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "map", "Карта", mapPage{
		Center:  center,
		Markers: markers,
		Today:   h.Service.Today().String(),
	})
}

func (h *PageHandler) Announcements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	markers, err := h.Service.ActiveMarkers(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "announcements", "Объявления", announcementsPage{Query: q, Markers: markers})
}

// Announcement shows one marker, expired or not, with its comments.
func (h *PageHandler) Announcement(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	detail, err := h.Service.MarkerDetail(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	me, _ := auth.CurrentUser(r.Context())
	h.render(w, r, http.StatusOK, "announcement", detail.Marker.HelpNeeded, announcementPage{
		Marker:   detail.Marker,
		Comments: detail.Comments,
		IsOwner:  detail.Marker.OwnedBy(me.UserID),
	})
}

func (h *PageHandler) Location(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentUser(r.Context())
	u, err := h.Service.User(r.Context(), me.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "location", "Мой город", locationPage{City: u.City})
}

func (h *PageHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentUser(r.Context())
	city := r.PostFormValue("city")
	if _, err := h.Service.SetLocation(r.Context(), me.UserID, city); err != nil {
		var verr *apperr.ValidationError
		if errors.As(err, &verr) {
			web.Redirect(w, r, "/location", "Укажите город")
			return
		}
		h.fail(w, r, err)
		return
	}
	web.Redirect(w, r, "/map", "Город сохранён")
}

func (h *PageHandler) Rating(w http.ResponseWriter, r *http.Request) {
	rating, err := h.Service.Rating(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "rating", "Рейтинг", rating)
}

func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "search", "Поиск", res)
}

func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "notfound", "Не найдено", nil)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	p := web.Page{Title: title, Flash: web.PopFlash(w, r), Data: data}
	if me, ok := auth.CurrentUser(r.Context()); ok {
		p.Username = me.Username
	}
	h.Renderer.Render(w, status, name, p)
}

// fail renders the not-found page for missing records and a bare 500 otherwise.
func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	logInternal(r, err)
	http.Error(w, ErrMessageInternal, http.StatusInternalServerError)
}
