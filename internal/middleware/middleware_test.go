package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/time/rate"

	"github.com/good-deeds/board/internal/metrics"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRecoverer_ReturnsErrorEnvelope(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/map", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, `"status":"error"`) || strings.Contains(body, "boom") {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestIPRateLimiter_PerClient(t *testing.T) {
	h := NewIPRateLimiter(rate.Limit(0.001), 2).Middleware(ok)

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	// ports differ, host is the same client
	if send("10.0.0.1:1000") != http.StatusOK || send("10.0.0.1:1001") != http.StatusOK {
		t.Fatal("burst requests should pass")
	}
	if code := send("10.0.0.1:1002"); code != http.StatusTooManyRequests {
		t.Errorf("third request: got %d, want 429", code)
	}
	if code := send("10.0.0.2:1000"); code != http.StatusOK {
		t.Errorf("other client: got %d, want 200", code)
	}
}

func TestIPRateLimiter_IgnoresForwardingHeaders(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 2)
	h := l.Middleware(ok)

	passed, limited := 0, 0
	for i := 0; i < 200; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i%250))
		req.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i%250))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		switch rr.Code {
		case http.StatusOK:
			passed++
		case http.StatusTooManyRequests:
			limited++
		}
	}
	if passed != 2 || limited != 198 {
		t.Errorf("one peer with rotating headers: passed=%d limited=%d, want 2/198", passed, limited)
	}
	if n := l.size(); n != 1 {
		t.Errorf("buckets: got %d, want 1", n)
	}
}

func TestIPRateLimiter_TrustedProxy(t *testing.T) {
	h := chimw.RealIP(NewIPRateLimiter(rate.Limit(0.001), 1).Middleware(ok))

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if send("198.51.100.1") != http.StatusOK || send("198.51.100.2") != http.StatusOK {
		t.Fatal("clients behind the proxy should get their own buckets")
	}
	if code := send("198.51.100.1"); code != http.StatusTooManyRequests {
		t.Errorf("repeat client: got %d, want 429", code)
	}
}

func TestIPRateLimiter_EvictsIdleBuckets(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	for i := 0; i < 50; i++ {
		l.allow(fmt.Sprintf("10.0.1.%d", i))
	}
	if n := l.size(); n != 50 {
		t.Fatalf("buckets: got %d, want 50", n)
	}

	clock = clock.Add(DefaultLimiterIdleTTL / 2)
	l.allow("10.0.1.0")

	clock = clock.Add(DefaultLimiterIdleTTL/2 + time.Second)
	l.allow("10.0.2.1")
	if n := l.size(); n != 2 {
		t.Errorf("after idle TTL: got %d buckets, want 2 (recent client and new client)", n)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(true)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rr.Header().Get("Content-Security-Policy"); !strings.Contains(got, "https://unpkg.com") {
		t.Errorf("CSP does not allow the map library: %q", got)
	}
	if rr.Header().Get("Strict-Transport-Security") == "" {
		t.Error("missing HSTS header")
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://deeds.example"})(ok)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/markers/1", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rr := preflight("https://deeds.example")
	if rr.Code != http.StatusNoContent || rr.Header().Get("Access-Control-Allow-Origin") != "https://deeds.example" {
		t.Errorf("preflight: code=%d headers=%v", rr.Code, rr.Header())
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "PATCH") ||
		rr.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Errorf("preflight headers: %v", rr.Header())
	}

	if rr := preflight("https://evil.example"); rr.Code != http.StatusForbidden || rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("foreign preflight: code=%d headers=%v", rr.Code, rr.Header())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/markers", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be allowed")
	}
	if rr.Header().Get("Vary") != "Origin" {
		t.Errorf("Vary: got %q", rr.Header().Get("Vary"))
	}

	// OPTIONS without a preflight header reaches the router
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/markers", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("plain OPTIONS: got %d, want 200 from next handler", rr.Code)
	}
}

func TestCORS_NoOrigins(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/markers", nil)
	req.Header.Set("Origin", "https://deeds.example")
	CORS(nil)(ok).ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" || rr.Header().Get("Vary") != "" {
		t.Errorf("disabled CORS set headers: %v", rr.Header())
	}
}

func TestMaxBytes(t *testing.T) {
	h := MaxBytes(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		if _, err := r.Body.Read(buf); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/add_marker", strings.NewReader("0123456789")))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("got %d, want 413", rr.Code)
	}
}

func TestPrometheus_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Prometheus)
	r.Get("/announcement/{id}", ok)

	matched := metrics.RequestTotal.WithLabelValues("GET", "/announcement/{id}", "200")
	unmatched := metrics.RequestTotal.WithLabelValues("GET", UnmatchedRoute, "404")
	beforeMatched := testutil.ToFloat64(matched)
	beforeUnmatched := testutil.ToFloat64(unmatched)
	beforeSeries := testutil.CollectAndCount(metrics.RequestTotal)

	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/scan-%d.php", i), nil))
	}
	for _, id := range []string{"1", "2", "3"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/announcement/"+id, nil))
	}

	if got := testutil.ToFloat64(unmatched) - beforeUnmatched; got != 50 {
		t.Errorf("unmatched requests: got %v, want 50", got)
	}
	if got := testutil.ToFloat64(matched) - beforeMatched; got != 3 {
		t.Errorf("matched requests: got %v, want 3", got)
	}
	if added := testutil.CollectAndCount(metrics.RequestTotal) - beforeSeries; added != 0 {
		t.Errorf("unknown paths added %d series", added)
	}
}
