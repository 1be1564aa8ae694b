package board

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/good-deeds/board/internal/models"
)

func serve(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokenFile := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenFile, []byte("tok"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DEEDS_API_URL", srv.URL)
	t.Setenv("DEEDS_TOKEN_FILE", tokenFile)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRating_LimitsRows(t *testing.T) {
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"rating": map[string]any{
				"by_markers": []models.UserCount{
					{UserID: 1, Username: "anna", Count: 1200},
					{UserID: 2, Username: "boris", Count: 3},
				},
				"by_comments": []models.UserCount{{UserID: 2, Username: "boris", Count: 7}},
				"locations":   []models.LocationCount{{Location: "алматы", Count: 2}},
			},
		})
	})

	out, err := execute(t, ratingCmd(), "--top", "1")
	if err != nil {
		t.Fatalf("rating: %v", err)
	}
	for _, want := range []string{"anna", "1,200", "1st", "алматы"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "boris") != 1 {
		t.Errorf("--top 1 should hide boris from the markers board:\n%s", out)
	}
}

func TestSearch(t *testing.T) {
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "ан" {
			t.Errorf("query: %q", r.URL.Query().Get("q"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "success",
			"users":   []models.User{{ID: 1, Username: "анна", City: "Омск"}},
			"markers": []models.Marker{},
		})
	})

	out, err := execute(t, searchCmd(), "ан")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "анна") || !strings.Contains(out, "Омск") {
		t.Errorf("output:\n%s", out)
	}
}

func TestSearch_NothingFound(t *testing.T) {
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "users": []any{}, "markers": []any{}})
	})

	out, err := execute(t, searchCmd(), "zzz")
	if err != nil || !strings.Contains(out, `Nothing found for "zzz".`) {
		t.Errorf("search: %q %v", out, err)
	}
}

func TestLocation(t *testing.T) {
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "city": body["city"], "lat": 55.7558, "lng": 37.6176})
	})

	out, err := execute(t, locationCmd(), "Москва")
	if err != nil || !strings.Contains(out, "Location set to Москва (55.7558, 37.6176)") {
		t.Errorf("location: %q %v", out, err)
	}
}

func TestAudit(t *testing.T) {
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("limit: %q", r.URL.Query().Get("limit"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "success",
			"entries": []models.AuditEntry{{ID: 1, UserID: 2, Action: "delete", ResourceType: "marker", ResourceID: 3, Details: "comments removed: 1"}},
		})
	})

	out, err := execute(t, auditCmd(), "--limit", "5")
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if !strings.Contains(out, "marker 3") || !strings.Contains(out, "comments removed: 1") {
		t.Errorf("output:\n%s", out)
	}
}
