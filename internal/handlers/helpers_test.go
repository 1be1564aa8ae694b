package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-deeds/board/internal/auth"
	"github.com/good-deeds/board/internal/repo/memory"
	"github.com/good-deeds/board/internal/service"
	"github.com/good-deeds/board/internal/web"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)

func newMemoryService() *service.Service {
	return service.New(memory.New(), func() time.Time { return testNow })
}

func newRenderer(t *testing.T) *web.Renderer {
	t.Helper()
	r, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func mustRegister(t *testing.T, svc *service.Service, name string) int {
	t.Helper()
	u, err := svc.Register(context.Background(), name, "secret1", "")
	if err != nil {
		t.Fatalf("Register %s: %v", name, err)
	}
	return u.ID
}

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return r
}

// requestWithBody replaces r's body with a JSON payload.
func requestWithBody(r *http.Request, body []byte) *http.Request {
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// asUser attaches an identity the way the auth gateway would.
func asUser(r *http.Request, id int, name string) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: id, Username: name}))
}

func jsonBody(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

type envelope struct {
	Status    string            `json:"status"`
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields"`
	MarkerID  int               `json:"marker_id"`
	CommentID int               `json:"comment_id"`
	Token     string            `json:"token"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return out
}
