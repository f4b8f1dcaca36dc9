package storetest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/bitelog/bitelog/server/internal/model"
	"github.com/bitelog/bitelog/server/internal/store"
)

// Run exercises the compliance suite against a store.Store implementation.
// makeStore must return a store with the schema applied; identifiers are
// randomized so a shared database is fine.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("Users", func(t *testing.T) { testUsers(t, makeStore(t)) })
	t.Run("Entries", func(t *testing.T) { testEntries(t, makeStore(t)) })
	t.Run("DayWindow", func(t *testing.T) { testDayWindow(t, makeStore(t)) })
	t.Run("Ownership", func(t *testing.T) { testOwnership(t, makeStore(t)) })
	t.Run("Settings", func(t *testing.T) { testSettings(t, makeStore(t)) })
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	email := "u-" + uuid.New().String() + "@example.test"

	u, err := s.Users().Create(ctx, &model.User{Email: email, Name: "ნინო"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Fatalf("CreateUser: missing id or created_at: %+v", u)
	}
	got, err := s.Users().GetByEmail(ctx, email)
	if err != nil || got.ID != u.ID || got.Name != "ნინო" {
		t.Fatalf("GetByEmail: got=%+v err=%v", got, err)
	}
	if got, err := s.Users().Get(ctx, u.ID); err != nil || got.Email != email {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}
	if _, err := s.Users().Create(ctx, &model.User{Email: email, Name: "dup"}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("duplicate email: expected ErrConflict, got %v", err)
	}
	if _, err := s.Users().GetByEmail(ctx, "nobody-"+uuid.New().String()+"@example.test"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByEmail missing: expected ErrNotFound, got %v", err)
	}
}

func testEntries(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := uuid.New().String()
	img := "data:image/jpeg;base64,AAAA"
	weight := 150.0

	older, err := s.Entries().Create(ctx, &model.FoodEntry{UserID: userID, Timestamp: 1_000, ImageURL: &img, UserProvidedWeight: &weight})
	if err != nil {
		t.Fatalf("CreateEntry older: %v", err)
	}
	if older.ID == "" || older.AnalysisData != nil {
		t.Fatalf("placeholder must have id and no analysis: %+v", older)
	}
	if older.ImageURL == nil || *older.ImageURL != img {
		t.Fatalf("image_url not round-tripped: %v", older.ImageURL)
	}
	if older.UserProvidedWeight == nil || *older.UserProvidedWeight != weight {
		t.Fatalf("user_provided_weight not round-tripped: %v", older.UserProvidedWeight)
	}
	newer, err := s.Entries().Create(ctx, &model.FoodEntry{UserID: userID, Timestamp: 2_000})
	if err != nil {
		t.Fatalf("CreateEntry newer: %v", err)
	}
	if newer.ImageURL != nil || newer.UserProvidedWeight != nil {
		t.Fatalf("absent optionals must stay nil: %+v", newer)
	}

	lst, err := s.Entries().List(ctx, model.ListEntriesRequest{UserID: userID})
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListEntries: n=%d err=%v", len(lst), err)
	}
	if lst[0].ID != newer.ID || lst[1].ID != older.ID {
		t.Fatalf("expected timestamp DESC order, got %s then %s", lst[0].ID, lst[1].ID)
	}

	analysis := json.RawMessage(`{"isFood":true,"confidenceScore":0.9,"summary":"ხაჭაპური","foodItems":[{"name":"ხაჭაპური","portion":"1 ცალი","macros":{"calories":600,"protein":20,"carbs":60,"fat":30}}],"totalMacros":{"calories":600,"protein":20,"carbs":60,"fat":30}}`)
	updated, err := s.Entries().UpdateAnalysis(ctx, userID, older.ID, analysis)
	if err != nil {
		t.Fatalf("UpdateAnalysis: %v", err)
	}
	assertJSONEqual(t, analysis, updated.AnalysisData)

	lst, err = s.Entries().List(ctx, model.ListEntriesRequest{UserID: userID})
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListEntries after update: n=%d err=%v", len(lst), err)
	}
	assertJSONEqual(t, analysis, lst[1].AnalysisData)

	if err := s.Entries().Delete(ctx, userID, newer.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if err := s.Entries().Delete(ctx, userID, newer.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	if lst, err := s.Entries().List(ctx, model.ListEntriesRequest{UserID: userID}); err != nil || len(lst) != 1 {
		t.Fatalf("ListEntries after delete: n=%d err=%v", len(lst), err)
	}
	if _, err := s.Entries().UpdateAnalysis(ctx, userID, newer.ID, analysis); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("update deleted entry: expected ErrNotFound, got %v", err)
	}
}

func testDayWindow(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := uuid.New().String()

	start := int64(1_710_028_800_000) // 2024-03-10T00:00:00Z
	end := start + 86_399_999
	stamps := map[string]int64{
		"before": start - 1,
		"first":  start,
		"last":   end,
		"after":  end + 1,
	}
	ids := map[string]string{}
	for name, ts := range stamps {
		e, err := s.Entries().Create(ctx, &model.FoodEntry{UserID: userID, Timestamp: ts})
		if err != nil {
			t.Fatalf("CreateEntry %s: %v", name, err)
		}
		ids[e.ID] = name
	}

	lst, err := s.Entries().List(ctx, model.ListEntriesRequest{UserID: userID, From: &start, To: &end})
	if err != nil {
		t.Fatalf("ListEntries window: %v", err)
	}
	var got []string
	for _, e := range lst {
		got = append(got, ids[e.ID])
	}
	if want := []string{"last", "first"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("window contents: got %v want %v", got, want)
	}
}

func testOwnership(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := uuid.New().String()
	other := uuid.New().String()

	e, err := s.Entries().Create(ctx, &model.FoodEntry{UserID: owner, Timestamp: 5})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if _, err := s.Entries().UpdateAnalysis(ctx, other, e.ID, json.RawMessage(`{"isFood":false}`)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("foreign update: expected ErrNotFound, got %v", err)
	}
	if err := s.Entries().Delete(ctx, other, e.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("foreign delete: expected ErrNotFound, got %v", err)
	}
	if lst, err := s.Entries().List(ctx, model.ListEntriesRequest{UserID: other}); err != nil || len(lst) != 0 {
		t.Fatalf("foreign list must be empty: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Entries().List(ctx, model.ListEntriesRequest{UserID: owner}); err != nil || len(lst) != 1 || lst[0].AnalysisData != nil {
		t.Fatalf("owner row must be untouched: %+v err=%v", lst, err)
	}
}

func testSettings(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := uuid.New().String()

	if _, err := s.Settings().Get(ctx, userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}
	created, err := s.Settings().CreateIfMissing(ctx, userID, 2200)
	if err != nil || created.CalorieGoal != 2200 || created.UserID != userID {
		t.Fatalf("CreateIfMissing: got=%+v err=%v", created, err)
	}
	again, err := s.Settings().CreateIfMissing(ctx, userID, 9999)
	if err != nil || again.CalorieGoal != 2200 || again.ID != created.ID {
		t.Fatalf("CreateIfMissing must not overwrite: got=%+v err=%v", again, err)
	}
	up, err := s.Settings().Upsert(ctx, userID, 1800)
	if err != nil || up.CalorieGoal != 1800 || up.ID != created.ID {
		t.Fatalf("Upsert existing: got=%+v err=%v", up, err)
	}

	fresh := uuid.New().String()
	ins, err := s.Settings().Upsert(ctx, fresh, 2500)
	if err != nil || ins.CalorieGoal != 2500 {
		t.Fatalf("Upsert new: got=%+v err=%v", ins, err)
	}
	if got, err := s.Settings().Get(ctx, fresh); err != nil || got.CalorieGoal != 2500 {
		t.Fatalf("Get after upsert: got=%+v err=%v", got, err)
	}
}

// assertJSONEqual compares documents structurally; JSONB normalizes key order
// and whitespace.
func assertJSONEqual(t *testing.T, want, got json.RawMessage) {
	t.Helper()
	var w, g any
	if err := json.Unmarshal(want, &w); err != nil {
		t.Fatalf("bad expected json: %v", err)
	}
	if err := json.Unmarshal(bytes.TrimSpace(got), &g); err != nil {
		t.Fatalf("stored analysis is not json: %v (%s)", err, string(got))
	}
	if !reflect.DeepEqual(w, g) {
		t.Fatalf("analysis mismatch:\nwant %s\ngot  %s", want, got)
	}
}
