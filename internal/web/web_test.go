package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/good-deeds/board/internal/models"
)

func TestRenderer_RendersEveryPage(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	for _, name := range []string{"login", "register", "about", "notfound", "map", "announcements", "announcement", "location", "rating", "search"} {
		if _, ok := r.pages[name]; !ok {
			t.Errorf("page %q not parsed", name)
		}
	}

	rr := httptest.NewRecorder()
	r.Render(rr, http.StatusOK, "announcements", Page{
		Title:    "Объявления",
		Username: "alice",
		Flash:    "<b>saved</b>",
		Data: struct {
			Query   string
			Markers []models.Marker
		}{
			Query: "мос",
			Markers: []models.Marker{{
				ID: 1, HelpNeeded: "нужна помощь", LocationText: "Москва",
				Deadline: models.NewDate(2099, 1, 1), CreatedAt: time.Now(),
			}},
		},
	})
	body := rr.Body.String()
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	for _, want := range []string{"нужна помощь", "до 2099-01-01", "/announcement/1", "&lt;b&gt;saved&lt;/b&gt;"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRenderer_UnknownPage(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	rr := httptest.NewRecorder()
	r.Render(rr, http.StatusOK, "missing", Page{})
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rr.Code)
	}
}

func TestFlash_RoundTrip(t *testing.T) {
	rr := httptest.NewRecorder()
	Redirect(rr, httptest.NewRequest(http.MethodPost, "/location", nil), "/map", "Город сохранён: Алматы")
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/map" {
		t.Fatalf("redirect: code=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}

	req := httptest.NewRequest(http.MethodGet, "/map", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	next := httptest.NewRecorder()
	if got := PopFlash(next, req); got != "Город сохранён: Алматы" {
		t.Errorf("PopFlash: got %q", got)
	}
	if cleared := next.Result().Cookies(); len(cleared) != 1 || cleared[0].MaxAge != -1 {
		t.Errorf("flash cookie not cleared: %+v", cleared)
	}

	if got := PopFlash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Errorf("no cookie: got %q", got)
	}
}

func TestAgo_Russian(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := map[time.Duration]string{
		0:                   "только что",
		30 * time.Second:    "30 сек. назад",
		5 * time.Minute:     "5 мин. назад",
		3 * time.Hour:       "3 ч. назад",
		2 * 24 * time.Hour:  "2 дн. назад",
		21 * 24 * time.Hour: "3 нед. назад",
	}
	for d, want := range cases {
		if got := ago(now.Add(-d), now); got != want {
			t.Errorf("ago(-%s) = %q, want %q", d, got, want)
		}
	}
}

func TestRenderer_RatingRanksAreNumbers(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	rr := httptest.NewRecorder()
	r.Render(rr, http.StatusOK, "rating", Page{
		Title: "Рейтинг",
		Data: struct {
			ByMarkers  []models.UserCount
			ByComments []models.UserCount
			Locations  []models.LocationCount
		}{
			ByMarkers: []models.UserCount{{Username: "anna", Count: 1200}, {Username: "boris", Count: 3}},
		},
	})
	body := rr.Body.String()
	if !strings.Contains(body, "<td>1</td><td>anna</td><td>1,200</td>") || !strings.Contains(body, "<td>2</td><td>boris</td>") {
		t.Errorf("rating rows not numbered: %s", body)
	}
	if strings.Contains(body, "1st") {
		t.Error("rating page uses English ordinals")
	}
}
