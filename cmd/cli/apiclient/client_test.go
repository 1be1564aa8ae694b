package apiclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDo_DecodesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","error":"validation failed","fields":{"deadline":"must be a date in YYYY-MM-DD format"}}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	err := c.Post("/api/markers", map[string]string{"deadline": "tomorrow"}, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Fields["deadline"] == "" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "deadline: must be a date") {
		t.Errorf("message: %s", err)
	}
}

func TestDo_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	err := c.Get("/api/rating", nil)
	if err == nil || !strings.Contains(err.Error(), "Bad Gateway") {
		t.Fatalf("expected status text, got %v", err)
	}
}

func TestDo_SendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer t1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"status":"success","user":{"id":3}}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Token: "t1", HTTP: srv.Client()}
	var out struct {
		User struct {
			ID int `json:"id"`
		} `json:"user"`
	}
	if err := c.Get("/api/me", &out); err != nil || out.User.ID != 3 {
		t.Fatalf("Get: %v %+v", err, out)
	}
}

func TestAuthenticated_RequiresToken(t *testing.T) {
	t.Setenv("DEEDS_TOKEN_FILE", t.TempDir()+"/none")
	if _, err := Authenticated(); err == nil {
		t.Fatal("expected error without saved token")
	}
}
