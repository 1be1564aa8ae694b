package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/good-deeds/board/internal/repo"
	"github.com/good-deeds/board/internal/service"
)

var almatyMarker = map[string]any{
	"help_needed": "нужна помощь",
	"location":    "Алматы",
	"deadline":    "2099-01-01",
	"contact":     "t.me/x",
	"lat":         43.24,
	"lng":         76.89,
}

func TestMarkerHandler_AddMarker(t *testing.T) {
	svc := newMemoryService()
	alice := mustRegister(t, svc, "alice")
	h := &MarkerHandler{Service: svc}

	req := asUser(httptest.NewRequest("POST", "/add_marker", nil), alice, "alice")
	req = requestWithBody(req, jsonBody(t, almatyMarker))
	rr := httptest.NewRecorder()
	h.AddMarker(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("AddMarker status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	out := decodeEnvelope(t, rr)
	if out.Status != "success" || out.MarkerID <= 0 {
		t.Errorf("unexpected response: %+v", out)
	}

	markers, err := svc.ActiveMarkers(context.Background(), "")
	if err != nil || len(markers) != 1 || markers[0].ID != out.MarkerID {
		t.Errorf("marker not listed: %v %v", markers, err)
	}
}

func TestMarkerHandler_AddMarker_Validation(t *testing.T) {
	h := &MarkerHandler{Service: newMemoryService()}

	body := map[string]any{"help_needed": "x", "location": "Омск", "deadline": "01.01.2099", "contact": "c", "lat": 95.0}
	req := asUser(requestWithBody(httptest.NewRequest("POST", "/add_marker", nil), jsonBody(t, body)), 1, "alice")
	rr := httptest.NewRecorder()
	h.AddMarker(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	out := decodeEnvelope(t, rr)
	if out.Status != "error" {
		t.Errorf("status field: got %q", out.Status)
	}
	for _, f := range []string{"deadline", "lat", "lng"} {
		if _, ok := out.Fields[f]; !ok {
			t.Errorf("missing field error for %s: %v", f, out.Fields)
		}
	}
}

func TestMarkerHandler_AddMarker_InvalidJSON(t *testing.T) {
	h := &MarkerHandler{Service: newMemoryService()}
	req := asUser(requestWithBody(httptest.NewRequest("POST", "/add_marker", nil), []byte("{")), 1, "alice")
	rr := httptest.NewRecorder()
	h.AddMarker(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestMarkerHandler_EditMarker_NonOwner(t *testing.T) {
	svc := newMemoryService()
	alice := mustRegister(t, svc, "alice")
	bob := mustRegister(t, svc, "bob")
	m, err := svc.CreateMarker(context.Background(), alice, service.MarkerInput{
		HelpNeeded: "help", Location: "Уфа", Deadline: "2099-01-01", Contact: "c", Lat: ptr(54.7), Lng: ptr(55.9),
	})
	if err != nil {
		t.Fatalf("CreateMarker: %v", err)
	}
	h := &MarkerHandler{Service: svc}

	body := jsonBody(t, map[string]any{"marker_id": m.ID, "help_needed": "hijacked"})
	rr := httptest.NewRecorder()
	h.EditMarker(rr, asUser(requestWithBody(httptest.NewRequest("POST", "/edit_marker", nil), body), bob, "bob"))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-owner edit: got %d, want 403", rr.Code)
	}

	got, _ := svc.Marker(context.Background(), m.ID)
	if got.HelpNeeded != "help" {
		t.Errorf("marker changed by non-owner: %+v", got)
	}

	rr = httptest.NewRecorder()
	h.EditMarker(rr, asUser(requestWithBody(httptest.NewRequest("POST", "/edit_marker", nil), body), alice, "alice"))
	if rr.Code != http.StatusOK {
		t.Fatalf("owner edit: got %d (%s)", rr.Code, rr.Body.String())
	}
	got, _ = svc.Marker(context.Background(), m.ID)
	if got.HelpNeeded != "hijacked" || got.Contact != "c" {
		t.Errorf("owner edit not applied: %+v", got)
	}
}

func TestMarkerHandler_DeleteMarker_NotFound(t *testing.T) {
	h := &MarkerHandler{Service: newMemoryService()}
	body := jsonBody(t, map[string]any{"marker_id": 404})
	rr := httptest.NewRecorder()
	h.DeleteMarker(rr, asUser(requestWithBody(httptest.NewRequest("POST", "/delete_marker", nil), body), 1, "alice"))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
	if out := decodeEnvelope(t, rr); out.Error != "not found" {
		t.Errorf("error: got %q", out.Error)
	}
}

func TestMarkerHandler_GetMarker(t *testing.T) {
	svc := newMemoryService()
	alice := mustRegister(t, svc, "alice")
	m, err := svc.CreateMarker(context.Background(), alice, service.MarkerInput{
		HelpNeeded: "help", Location: "Уфа", Deadline: "2020-01-01", Contact: "c", Lat: ptr(54.7), Lng: ptr(55.9),
	})
	if err != nil {
		t.Fatalf("CreateMarker: %v", err)
	}
	h := &MarkerHandler{Service: svc}

	id := strconv.Itoa(m.ID)
	rr := httptest.NewRecorder()
	h.GetMarker(rr, requestWithChiURLParams("GET", "/api/markers/"+id, nil, map[string]string{"id": id}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expired marker by id: got %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.GetMarker(rr, requestWithChiURLParams("GET", "/api/markers/abc", nil, map[string]string{"id": "abc"}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", rr.Code)
	}
}

func TestMarkerHandler_ListMarkers_StoreFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM markers m`).WillReturnError(errors.New("connection reset"))

	h := &MarkerHandler{Service: service.New(repo.NewStore(db), nil)}
	rr := httptest.NewRecorder()
	h.ListMarkers(rr, httptest.NewRequest("GET", "/api/markers?q=мос", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rr.Code)
	}
	if out := decodeEnvelope(t, rr); out.Error != ErrMessageInternal {
		t.Errorf("internal details leaked: %q", out.Error)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
