package validate

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestUserID(t *testing.T) {
	good := []string{"0b9d6c1e-3f7a-4f0a-9a55-2b8f1c3d4e5f", "user_1", "abc"}
	for _, v := range good {
		if err := UserID(v); err != nil {
			t.Fatalf("%q: unexpected error %v", v, err)
		}
	}
	bad := []string{"", "has space", "semi;colon", strings.Repeat("a", 65)}
	for _, v := range bad {
		if err := UserID(v); err == nil {
			t.Fatalf("%q: expected error", v)
		}
	}
}

func TestAnalysisData(t *testing.T) {
	for _, ok := range []string{"", "null", " null ", `{"isFood":true}`} {
		if err := AnalysisData(json.RawMessage(ok)); err != nil {
			t.Fatalf("%q: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []string{`[1,2]`, `"text"`, `42`, `{broken`} {
		if err := AnalysisData(json.RawMessage(bad)); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestWeight(t *testing.T) {
	if err := Weight(nil); err != nil {
		t.Fatalf("nil weight must be accepted: %v", err)
	}
	if err := Weight(ptr(150.0)); err != nil {
		t.Fatalf("150 g must be accepted: %v", err)
	}
	for _, v := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		if err := Weight(ptr(v)); err == nil {
			t.Fatalf("%v: expected error", v)
		}
	}
}

func TestCalorieGoal(t *testing.T) {
	if err := CalorieGoal(ptr(2200.0)); err != nil {
		t.Fatalf("2200 must be accepted: %v", err)
	}
	for _, v := range []*float64{nil, ptr(0.0), ptr(-1.0), ptr(1999.5)} {
		if err := CalorieGoal(v); err == nil {
			t.Fatalf("%v: expected error", v)
		}
	}
}

func TestCreateEntry(t *testing.T) {
	if err := CreateEntry("u1", 1700000000000, nil, nil, nil); err != nil {
		t.Fatalf("placeholder must be valid: %v", err)
	}
	if err := CreateEntry("u1", 0, nil, nil, nil); err == nil {
		t.Fatalf("expected error for missing timestamp")
	}
	if err := CreateEntry("", 1, nil, nil, nil); err == nil {
		t.Fatalf("expected error for missing user")
	}
	if err := CreateEntry("u1", 1, nil, json.RawMessage(`[]`), nil); err == nil {
		t.Fatalf("expected error for array analysis")
	}
}

func TestLogin(t *testing.T) {
	if err := Login("nino@example.ge", "ნინო"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Login("", "x"); err == nil {
		t.Fatalf("expected error for missing email")
	}
	if err := Login("not-an-email", "x"); err == nil {
		t.Fatalf("expected error for invalid email")
	}
}
