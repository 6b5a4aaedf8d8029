// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fitcal/backend/internal/api/handlers"
	"github.com/fitcal/backend/internal/api/middleware"
	"github.com/fitcal/backend/internal/calendar"
	"github.com/fitcal/backend/internal/notify"
	"github.com/fitcal/backend/internal/storage"
	"github.com/fitcal/backend/internal/websocket"
)

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(
	db *storage.DB,
	svc *calendar.Service,
	scheduler *notify.Scheduler,
	settingsRepo *storage.SettingsRepository,
	hub *websocket.Hub,
	staticDir string,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(db)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(svc, scheduler, hub)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(hub)).Methods("GET")

	// Event endpoints
	api.HandleFunc("/events", handlers.ListEvents(svc)).Methods("GET")
	api.HandleFunc("/events", handlers.CreateEvent(svc)).Methods("POST")
	api.HandleFunc("/events/upcoming", handlers.UpcomingEvents(svc)).Methods("GET")
	api.HandleFunc("/events/completed", handlers.CompletedEvents(svc)).Methods("GET")
	api.HandleFunc("/events/cleanup", handlers.CleanupEvents(svc)).Methods("POST")
	api.HandleFunc("/events/{id}", handlers.GetEvent(svc)).Methods("GET")
	api.HandleFunc("/events/{id}", handlers.UpdateEvent(svc)).Methods("PUT")
	api.HandleFunc("/events/{id}", handlers.DeleteEvent(svc)).Methods("DELETE")
	api.HandleFunc("/events/{id}/complete", handlers.CompleteEvent(svc)).Methods("POST")

	// Settings endpoints
	api.HandleFunc("/settings", handlers.GetSettings(settingsRepo)).Methods("GET")
	api.HandleFunc("/settings", handlers.UpdateSettings(settingsRepo)).Methods("PUT")

	// Serve static frontend files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))

	return r
}
