package diaryservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bitelog/bitelog/server/internal/config"
)

func TestStartupHealthTimeout(t *testing.T) {
	if got := startupHealthTimeout(5); got != 60*time.Second {
		t.Fatalf("expected 60s floor, got %s", got)
	}
	if got := startupHealthTimeout(45); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}

func TestWiringBecomesHealthy(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "run.db")
	log := zerolog.Nop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, images, err := initDependencies(ctx, cfg, log)
	if err != nil {
		t.Fatalf("initDependencies: %v", err)
	}
	svcHealth := startHealthCheckers(ctx, cfg, log, st)
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		t.Fatalf("waitUntilHealthy: %v", err)
	}

	srv := httptest.NewServer(buildRouter(st, images, svcHealth, cfg, log))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" {
		t.Fatalf("expected healthy, got %q", body.Status)
	}
}
