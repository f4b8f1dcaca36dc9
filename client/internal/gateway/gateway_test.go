package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitelog/bitelog/client/internal/analysis"
	clienterrors "github.com/bitelog/bitelog/client/internal/errors"
)

func newGateway(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client(), time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreateEntry_SendsPlaceholder(t *testing.T) {
	var got map[string]any
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/entries" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		writeJSON(w, http.StatusCreated, map[string]any{"entry": map[string]any{
			"id": "e1", "user_id": "u1", "timestamp": 42, "image_url": "data:image/jpeg;base64,AA", "user_provided_weight": 150,
		}})
	})

	img := "data:image/jpeg;base64,AA"
	w := 150.0
	res := g.CreateEntry(context.Background(), "u1", CreateEntryInput{Timestamp: 42, ImageURL: &img, UserProvidedWeight: &w})
	if !res.Success || res.Data.ID != "e1" || res.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Data.AnalysisData != nil {
		t.Fatalf("placeholder must have no analysis: %+v", res.Data.AnalysisData)
	}
	if got["user_id"] != "u1" || got["timestamp"] != float64(42) || got["analysis_data"] != nil || got["user_provided_weight"] != float64(150) {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestUpdateEntryAnalysis_RoundTrip(t *testing.T) {
	a := &analysis.Result{IsFood: true, Summary: "სალათი", FoodItems: []analysis.FoodItem{{Name: "კიტრი", Portion: "100გ"}}, TotalMacros: analysis.Macros{Calories: 30}}
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/entries/e1" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			UserID       string          `json:"user_id"`
			AnalysisData json.RawMessage `json:"analysis_data"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{"entry": map[string]any{"id": "e1", "user_id": body.UserID, "analysis_data": body.AnalysisData}})
	})

	res := g.UpdateEntryAnalysis(context.Background(), "u1", "e1", a)
	if !res.Success || res.Data.UserID != "u1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Data.AnalysisData == nil || res.Data.AnalysisData.Summary != "სალათი" || res.Data.AnalysisData.FoodItems[0].Name != "კიტრი" {
		t.Fatalf("analysis not round-tripped: %+v", res.Data.AnalysisData)
	}
}

func TestErrorMapping(t *testing.T) {
	t.Run("body error field", func(t *testing.T) {
		g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Entry not found", "code": 404})
		})
		res := g.DeleteEntry(context.Background(), "u1", "missing")
		if res.Success || !res.NotFound() || res.Error != "Entry not found" {
			t.Fatalf("unexpected result: %+v", res)
		}
		if !clienterrors.IsIrrecoverable(res.Err("delete entry")) {
			t.Fatal("404 should classify as irrecoverable")
		}
	})
	t.Run("status fallback", func(t *testing.T) {
		g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		res := g.GetSettings(context.Background(), "u1")
		if res.Success || res.Error != "HTTP 502" || res.StatusCode != 502 {
			t.Fatalf("unexpected result: %+v", res)
		}
	})
	t.Run("transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()
		res := New(url, nil, time.Second).Login(context.Background(), "a@b.ge", "ა")
		if res.Success || res.StatusCode != 0 || res.Error == "" {
			t.Fatalf("unexpected result: %+v", res)
		}
		if res.Err("login") == nil {
			t.Fatal("failed result must produce an error")
		}
	})
}

func TestListEntries_DateAndZone(t *testing.T) {
	var query map[string]string
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": []any{
			map[string]any{"id": "b", "timestamp": 2},
			map[string]any{"id": "a", "timestamp": 1},
		}})
	})

	tbilisi, err := time.LoadLocation("Asia/Tbilisi")
	if err != nil {
		t.Skipf("zone data unavailable: %v", err)
	}
	day := time.Date(2024, 3, 10, 23, 30, 0, 0, tbilisi)
	res := g.ListEntries(context.Background(), "u1", &day)
	if !res.Success || len(res.Data) != 2 || res.Data[0].ID != "b" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if query["user_id"] != "u1" || query["date"] != "2024-03-10" || query["tz"] != "Asia/Tbilisi" {
		t.Fatalf("unexpected query: %v", query)
	}

	res = g.ListEntries(context.Background(), "u1", nil)
	if _, ok := query["date"]; ok || !res.Success {
		t.Fatalf("undated list must not send date: %v", query)
	}
}

func TestListEntries_UnnamedZoneSendsOffset(t *testing.T) {
	var tz string
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		tz = r.URL.Query().Get("tz")
		writeJSON(w, http.StatusOK, map[string]any{"entries": []any{}})
	})

	cases := []struct {
		loc  *time.Location
		want string
	}{
		{time.FixedZone("Local", 4*3600), "+04:00"},
		{time.FixedZone("", -(5*3600 + 30*60)), "-05:30"},
		{time.UTC, "UTC"},
	}
	for _, c := range cases {
		day := time.Date(2024, 3, 10, 2, 0, 0, 0, c.loc)
		if res := g.ListEntries(context.Background(), "u1", &day); !res.Success {
			t.Fatalf("list failed: %+v", res)
		}
		if tz != c.want {
			t.Fatalf("zone %q: sent tz=%q want %q", c.loc, tz, c.want)
		}
	}
}

func TestListEntries_EmptyIsNonNil(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"entries": nil})
	})
	res := g.ListEntries(context.Background(), "u1", nil)
	if !res.Success || res.Data == nil || len(res.Data) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSettingsAndLogin(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/api/settings/u1":
			var in struct {
				CalorieGoal int `json:"calorie_goal"`
			}
			_ = json.NewDecoder(r.Body).Decode(&in)
			writeJSON(w, http.StatusOK, map[string]any{"settings": map[string]any{"user_id": "u1", "calorie_goal": in.CalorieGoal}})
		case r.Method == http.MethodPost && r.URL.Path == "/api/auth/login":
			b, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(b), `"email":"nino@example.ge"`) {
				t.Errorf("unexpected login body %s", b)
			}
			writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": "acc-1", "email": "nino@example.ge", "name": "ნინო"}})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
		}
	})

	s := g.UpdateSettings(context.Background(), "u1", 1800)
	if !s.Success || s.Data.CalorieGoal != 1800 {
		t.Fatalf("unexpected settings: %+v", s)
	}
	a := g.Login(context.Background(), "nino@example.ge", "ნინო")
	if !a.Success || a.Data.ID != "acc-1" || a.Data.Name != "ნინო" {
		t.Fatalf("unexpected account: %+v", a)
	}
}
