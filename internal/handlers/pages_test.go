package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/good-deeds/board/internal/service"
)

func newPageHandler(t *testing.T) (*PageHandler, *service.Service) {
	t.Helper()
	svc := newMemoryService()
	return &PageHandler{Service: svc, Renderer: newRenderer(t)}, svc
}

func TestPageHandler_Root(t *testing.T) {
	h, _ := newPageHandler(t)

	rr := httptest.NewRecorder()
	h.Root(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Header().Get("Location") != "/login" {
		t.Errorf("anonymous root: got %q, want /login", rr.Header().Get("Location"))
	}

	rr = httptest.NewRecorder()
	h.Root(rr, asUser(httptest.NewRequest("GET", "/", nil), 1, "alice"))
	if rr.Header().Get("Location") != "/map" {
		t.Errorf("signed-in root: got %q, want /map", rr.Header().Get("Location"))
	}
}

func TestPageHandler_Announcement(t *testing.T) {
	h, svc := newPageHandler(t)
	alice := mustRegister(t, svc, "alice")
	m, err := svc.CreateMarker(context.Background(), alice, service.MarkerInput{
		HelpNeeded: "Нужны дрова", Location: "Омск", Deadline: "2099-01-01", Contact: "c", Lat: ptr(54.9), Lng: ptr(73.3),
	})
	if err != nil {
		t.Fatalf("CreateMarker: %v", err)
	}
	if _, err := svc.AddComment(context.Background(), alice, m.ID, "Могу привезти"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	id := strconv.Itoa(m.ID)
	rr := httptest.NewRecorder()
	h.Announcement(rr, asUser(requestWithChiURLParams("GET", "/announcement/"+id, nil, map[string]string{"id": id}), alice, "alice"))
	if rr.Code != http.StatusOK {
		t.Fatalf("Announcement status: got %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Нужны дрова", "Могу привезти"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestPageHandler_Announcement_NotFound(t *testing.T) {
	h, _ := newPageHandler(t)

	for _, id := range []string{"999", "abc"} {
		rr := httptest.NewRecorder()
		h.Announcement(rr, requestWithChiURLParams("GET", "/announcement/"+id, nil, map[string]string{"id": id}))
		if rr.Code != http.StatusNotFound {
			t.Errorf("id %s: got %d, want 404", id, rr.Code)
		}
	}
}

func TestPageHandler_Map(t *testing.T) {
	h, svc := newPageHandler(t)
	alice := mustRegister(t, svc, "alice")
	if _, err := svc.CreateMarker(context.Background(), alice, service.MarkerInput{
		HelpNeeded: "Нужна лодка", Location: "Уфа", Deadline: "2099-01-01", Contact: "c", Lat: ptr(54.7), Lng: ptr(55.9),
	}); err != nil {
		t.Fatalf("CreateMarker: %v", err)
	}

	rr := httptest.NewRecorder()
	h.Map(rr, asUser(httptest.NewRequest("GET", "/map", nil), alice, "alice"))
	if rr.Code != http.StatusOK {
		t.Fatalf("Map status: got %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Нужна лодка") {
		t.Error("map does not include the active marker")
	}
}

func TestPageHandler_SetLocation(t *testing.T) {
	h, svc := newPageHandler(t)
	alice := mustRegister(t, svc, "alice")

	req := asUser(formRequest("/location", url.Values{"city": {"Москва"}}), alice, "alice")
	rr := httptest.NewRecorder()
	h.SetLocation(rr, req)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/map" {
		t.Fatalf("SetLocation: got %d -> %q", rr.Code, rr.Header().Get("Location"))
	}
	center, err := svc.MapCenter(context.Background(), alice)
	if err != nil || center.Lat != 55.7558 {
		t.Errorf("map center: %+v %v", center, err)
	}

	rr = httptest.NewRecorder()
	h.SetLocation(rr, asUser(formRequest("/location", url.Values{"city": {"  "}}), alice, "alice"))
	if rr.Header().Get("Location") != "/location" {
		t.Errorf("blank city: got %q, want /location", rr.Header().Get("Location"))
	}
}

func TestPageHandler_StaticPages(t *testing.T) {
	h, svc := newPageHandler(t)
	alice := mustRegister(t, svc, "alice")

	pages := map[string]http.HandlerFunc{
		"/about":         h.About,
		"/announcements": h.Announcements,
		"/location":      h.Location,
		"/rating":        h.Rating,
		"/search?q=al":   h.Search,
	}
	for path, fn := range pages {
		rr := httptest.NewRecorder()
		fn(rr, asUser(httptest.NewRequest("GET", path, nil), alice, "alice"))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", path, rr.Code)
		}
	}
}
