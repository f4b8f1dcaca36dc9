package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bitelog/bitelog/server/internal/api/recovery"
	"github.com/bitelog/bitelog/server/internal/api/respond"
	"github.com/bitelog/bitelog/server/internal/services"
)

// Deps carries everything the router hands to handlers.
type Deps struct {
	Users    *services.UserService
	Settings *services.SettingsService
	Entries  *services.EntryService
	Health   HealthReporter
	Log      zerolog.Logger
}

// NewRouter registers the diary API. Unknown paths and methods answer with
// the same JSON error body as the handlers.
func NewRouter(d Deps) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.New(d.Log))
	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.WriteError(w, http.StatusNotFound, "Not found")
	})
	root.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Auth
	auth := NewAuthHandler(d.Users)
	root.HandleFunc("/api/auth/login", auth.Login).Methods("POST")

	// Entries
	entries := NewEntryHandler(d.Entries)
	root.HandleFunc("/api/entries", entries.ListEntries).Methods("GET")
	root.HandleFunc("/api/entries", entries.CreateEntry).Methods("POST")
	root.HandleFunc("/api/entries/{id}", entries.UpdateEntry).Methods("PUT")
	root.HandleFunc("/api/entries/{id}", entries.DeleteEntry).Methods("DELETE")

	// Settings
	settings := NewSettingsHandler(d.Settings)
	root.HandleFunc("/api/settings/{userId}", settings.GetSettings).Methods("GET")
	root.HandleFunc("/api/settings/{userId}", settings.UpdateSettings).Methods("PUT")

	// Health and metrics
	root.HandleFunc("/api/health", NewHealthHandler(d.Health).CheckHealth).Methods("GET")
	root.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return root
}
