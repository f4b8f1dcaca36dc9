package localstate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitelog/bitelog/client/internal/analysis"
	"github.com/bitelog/bitelog/client/internal/entrystore"
)

func openTemp(t *testing.T) *KV {
	t.Helper()
	kv, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestDataDir_Override(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "home")
	t.Setenv(envHome, tmp)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir error: %v", err)
	}
	if dir != tmp {
		t.Fatalf("expected dir %s, got %s", tmp, dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("dir not created: %v", err)
	}
	p, err := DBPath()
	if err != nil || p != filepath.Join(tmp, DBFilename) {
		t.Fatalf("DBPath: %s %v", p, err)
	}
}

func TestKV_GetSetDelete(t *testing.T) {
	kv := openTemp(t)

	if _, err := kv.Get("k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := kv.Set("k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set("k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, err := kv.Get("k"); err != nil || v != "v2" {
		t.Fatalf("Get: %q %v", v, err)
	}
	if err := kv.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := kv.Delete("k"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
	if _, err := kv.Get("k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestKV_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	kv, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = kv.Set(KeyTempUserID, "anon-1")
	_ = kv.Close()

	kv, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv.Close()
	if v, _ := kv.Get(KeyTempUserID); v != "anon-1" {
		t.Fatalf("value lost across reopen: %q", v)
	}
}

func TestSaveEntries_StripsImagesBeforeToday(t *testing.T) {
	kv := openTemp(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	img := "data:image/jpeg;base64,AA"

	in := []entrystore.Entry{
		{ID: "today", Timestamp: entrystore.StartOfDay(now).UnixMilli(), ImageURL: &img, State: entrystore.Pending{}},
		{ID: "yesterday", Timestamp: entrystore.StartOfDay(now).UnixMilli() - 1, ImageURL: &img,
			State: entrystore.Ready{Analysis: &analysis.Result{IsFood: true, Summary: "ლობიო"}}},
	}
	if err := SaveEntries(kv, in, now); err != nil {
		t.Fatalf("SaveEntries: %v", err)
	}
	if in[1].ImageURL == nil {
		t.Fatal("SaveEntries must not modify the caller's entries")
	}

	out, err := LoadEntries(kv)
	if err != nil {
		t.Fatalf("LoadEntries: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[0].ImageURL == nil || *out[0].ImageURL != img {
		t.Fatalf("today's image must be kept: %+v", out[0])
	}
	if out[1].ImageURL != nil {
		t.Fatalf("yesterday's image must be stripped: %+v", out[1])
	}
	if out[1].Analysis() == nil || out[1].Analysis().Summary != "ლობიო" {
		t.Fatalf("analysis lost: %+v", out[1])
	}
}

func TestLoadEntries_Empty(t *testing.T) {
	kv := openTemp(t)
	out, err := LoadEntries(kv)
	if err != nil || out != nil {
		t.Fatalf("expected nil entries, got %v %v", out, err)
	}
}

func TestGoal_DefaultAndRoundTrip(t *testing.T) {
	kv := openTemp(t)
	if g, err := LoadGoal(kv); err != nil || g != DefaultGoal {
		t.Fatalf("default goal: %d %v", g, err)
	}
	if err := SaveGoal(kv, 1800); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}
	if g, _ := LoadGoal(kv); g != 1800 {
		t.Fatalf("expected 1800, got %d", g)
	}
	_ = kv.Set(KeyGoal, "garbage")
	if g, _ := LoadGoal(kv); g != DefaultGoal {
		t.Fatalf("unparseable goal must fall back, got %d", g)
	}
}
