package api

import (
	"net/http"
	"time"

	"github.com/bitelog/bitelog/server/internal/api/respond"
)

// HealthReporter is satisfied by health.ServiceHealthChecker.
type HealthReporter interface {
	IsHealthy() bool
	Components() map[string]bool
}

// HealthHandler serves GET /api/health from cached checker state.
type HealthHandler struct {
	reporter HealthReporter
}

func NewHealthHandler(r HealthReporter) *HealthHandler { return &HealthHandler{reporter: r} }

// CheckHealth always answers 200; the body carries healthy or unhealthy.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	var components map[string]bool
	if h.reporter != nil {
		if h.reporter.IsHealthy() {
			status = "healthy"
		}
		components = h.reporter.Components()
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}
