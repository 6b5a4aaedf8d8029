package handlers

import (
	"net/http"

	"github.com/fitcal/backend/internal/calendar"
	"github.com/fitcal/backend/internal/notify"
	"github.com/fitcal/backend/internal/storage"
	"github.com/fitcal/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		writeJSON(w, HealthResponse{Status: status, DBConnected: dbConnected})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	EventsCount      int `json:"events_count"`
	UpcomingCount    int `json:"upcoming_count"`
	PendingReminders int `json:"pending_reminders"`
	ConnectedClients int `json:"connected_clients"`
}

// Status returns a handler that provides system status information.
func Status(svc *calendar.Service, scheduler *notify.Scheduler, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := StatusResponse{
			EventsCount:   svc.EventCount(),
			UpcomingCount: len(svc.UpcomingEvents("", 0)),
		}
		if scheduler != nil {
			response.PendingReminders = scheduler.PendingCount()
		}
		if hub != nil {
			response.ConnectedClients = hub.ClientCount()
		}

		writeJSON(w, response)
	}
}
