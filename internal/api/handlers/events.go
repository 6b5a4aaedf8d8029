// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fitcal/backend/internal/api/middleware"
	"github.com/fitcal/backend/internal/calendar"
	"github.com/fitcal/backend/internal/storage/models"
)

// ListEvents returns all events, or the events for one calendar day when a
// ?date=YYYY-MM-DD query parameter is given, or a start-time range with
// ?from and ?to (RFC 3339, inclusive).
func ListEvents(svc *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var events []*models.Event
		switch {
		case q.Get("date") != "":
			date, err := time.ParseInLocation("2006-01-02", q.Get("date"), time.Local)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "date must be YYYY-MM-DD")
				return
			}
			events = svc.EventsOn(date)

		case q.Get("from") != "" || q.Get("to") != "":
			from, err := time.Parse(time.RFC3339, q.Get("from"))
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "from must be RFC 3339")
				return
			}
			to, err := time.Parse(time.RFC3339, q.Get("to"))
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "to must be RFC 3339")
				return
			}
			events = svc.EventsInRange(from, to)

		default:
			events = svc.Events()
		}

		writeJSON(w, nonNil(events))
	}
}

// CreateEvent adds a new event. The reminder handle and id fields of the
// request body are ignored; they are assigned by the service.
func CreateEvent(svc *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev models.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if ev.Type == "" {
			ev.Type = models.EventOther
		}
		if ev.EndTime.IsZero() {
			ev.EndTime = ev.StartTime
		}

		created, err := svc.AddEvent(r.Context(), &ev)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

// GetEvent returns a single event by id.
func GetEvent(svc *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev := svc.GetEvent(mux.Vars(r)["id"])
		if ev == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
			return
		}
		writeJSON(w, ev)
	}
}

// UpdateEvent merges a partial update into an event.
func UpdateEvent(svc *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch calendar.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		updated, err := svc.UpdateEvent(r.Context(), mux.Vars(r)["id"], patch)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}
		if updated == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
			return
		}

		writeJSON(w, updated)
	}
}

// DeleteEvent removes an event and cancels its reminder.
func DeleteEvent(svc *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !svc.DeleteEvent(r.Context(), mux.Vars(r)["id"]) {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CompleteEvent marks an event as completed.
func CompleteEvent(svc *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !svc.MarkEventCompleted(r.Context(), mux.Vars(r)["id"]) {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UpcomingEvents returns future events, optionally filtered by ?type and
// truncated to ?limit (default 10).
func UpcomingEvents(svc *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		typ := models.EventType(q.Get("type"))
		if typ != "" && !typ.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Unknown event type")
			return
		}

		limit := 0
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		writeJSON(w, nonNil(svc.UpcomingEvents(typ, limit)))
	}
}

// CompletedEvents returns completed events, optionally filtered by ?type.
func CompletedEvents(svc *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		typ := models.EventType(r.URL.Query().Get("type"))
		if typ != "" && !typ.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Unknown event type")
			return
		}
		writeJSON(w, nonNil(svc.CompletedEvents(typ)))
	}
}

// CleanupEvents drops completed events older than ?days (default 30).
func CleanupEvents(svc *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 0
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "days must be a positive integer")
				return
			}
			days = n
		}

		removed := svc.ClearOldEvents(r.Context(), days)
		writeJSON(w, map[string]int{"removed": removed})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func nonNil(events []*models.Event) []*models.Event {
	if events == nil {
		return []*models.Event{}
	}
	return events
}
