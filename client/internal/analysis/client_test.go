package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleResult = `{"isFood":true,"confidenceScore":0.92,"summary":"ხაჭაპური","foodItems":[{"name":"ხაჭაპური","portion":"1 ცალი","macros":{"calories":600,"protein":20,"carbs":60,"fat":30}}],"totalMacros":{"calories":600,"protein":20,"carbs":60,"fat":30}}`

func geminiReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}}},
	})
	return string(b)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "k", Model: "gemini-test", BaseURL: srv.URL}, srv.Client())
}

func TestBuildPrompt(t *testing.T) {
	if got := BuildPrompt(nil); strings.Contains(got, "grams") {
		t.Fatalf("no-weight prompt must not mention grams: %q", got)
	}
	zero := 0.0
	if got := BuildPrompt(&zero); strings.Contains(got, "grams") {
		t.Fatalf("zero weight must be ignored: %q", got)
	}
	w := 150.0
	if got := BuildPrompt(&w); !strings.Contains(got, "exact weight of this food as 150 grams") {
		t.Fatalf("expected 150 g sentence, got %q", got)
	}
	if !strings.Contains(BuildPrompt(nil), "Georgian") {
		t.Fatal("prompt must ask for Georgian text")
	}
}

func TestAnalyze_SendsRequestAndParses(t *testing.T) {
	var captured generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "k" {
			t.Errorf("missing api key header")
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, geminiReply(sampleResult))
	})

	w := 150.0
	res, err := c.Analyze(context.Background(), "data:image/jpeg;base64,QUJD", &w)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.IsFood || res.Summary != "ხაჭაპური" || len(res.FoodItems) != 1 || res.TotalMacros.Calories != 600 {
		t.Fatalf("unexpected result: %+v", res)
	}

	parts := captured.Contents[0].Parts
	if parts[0].InlineData == nil || parts[0].InlineData.Data != "QUJD" || parts[0].InlineData.MimeType != "image/jpeg" {
		t.Fatalf("image part not stripped or typed: %+v", parts[0].InlineData)
	}
	if !strings.Contains(parts[1].Text, "150 grams") {
		t.Fatalf("weight sentence missing: %q", parts[1].Text)
	}
	gc := captured.GenerationConfig
	if gc.Temperature != 0.1 || gc.ResponseMimeType != "application/json" || gc.ResponseSchema == nil {
		t.Fatalf("unexpected generation config: %+v", gc)
	}
}

func TestAnalyze_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
		},
		"no candidates": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"candidates":[]}`)
		},
		"malformed text": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, geminiReply("not json at all"))
		},
		"missing summary": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, geminiReply(`{"isFood":true,"foodItems":[],"totalMacros":{"calories":0,"protein":0,"carbs":0,"fat":0}}`))
		},
		"negative item macro": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, geminiReply(strings.Replace(sampleResult, `"fat":30}}]`, `"fat":-3}}]`, 1)))
		},
		"negative total": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, geminiReply(strings.Replace(sampleResult, `"totalMacros":{"calories":600`, `"totalMacros":{"calories":-600`, 1)))
		},
		"confidence above one": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, geminiReply(strings.Replace(sampleResult, `"confidenceScore":0.92`, `"confidenceScore":1.5`, 1)))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, h)
			res, err := c.Analyze(context.Background(), "QUJD", nil)
			if res != nil {
				t.Fatalf("expected no result, got %+v", res)
			}
			if !errors.Is(err, ErrInference) {
				t.Fatalf("expected ErrInference, got %v", err)
			}
		})
	}
}

func TestAnalyze_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url}, nil)
	_, err := c.Analyze(context.Background(), "QUJD", nil)
	var ie *InferenceError
	if !errors.As(err, &ie) || ie.StatusCode != 0 {
		t.Fatalf("expected transport InferenceError, got %v", err)
	}
}

func TestParseResult_NotFoodIsStillAResult(t *testing.T) {
	res, err := ParseResult([]byte(`{"isFood":false,"confidenceScore":0.1,"summary":"ეს არ არის საკვები","foodItems":[],"totalMacros":{"calories":0,"protein":0,"carbs":0,"fat":0}}`))
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if res.IsFood {
		t.Fatal("expected isFood=false")
	}
}

func TestResultClone_DoesNotAlias(t *testing.T) {
	r, err := ParseResult([]byte(sampleResult))
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	c := r.Clone()
	c.FoodItems[0].Name = "სხვა"
	if r.FoodItems[0].Name != "ხაჭაპური" {
		t.Fatal("clone shares FoodItems with original")
	}
}
