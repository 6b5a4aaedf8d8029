// Package calendar owns the collection of fitness calendar events: CRUD with
// durable mirroring, recurring-event expansion and reminder scheduling
// against the notifier collaborator.
package calendar

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitcal/backend/internal/notify"
	"github.com/fitcal/backend/internal/storage/models"
	"github.com/fitcal/backend/internal/websocket"
)

// catchUpWindow is how far ahead the startup reconciliation pass looks when
// re-scheduling reminders that have no live handle.
const catchUpWindow = 24 * time.Hour

const defaultUpcomingLimit = 10

// Store is the persistence collaborator. The in-memory collection is
// authoritative for the session; Save mirrors it out wholesale.
type Store interface {
	Load(ctx context.Context) ([]models.Event, time.Time, error)
	Save(ctx context.Context, events []models.Event, lastSync time.Time) error
}

// Service maintains the event collection. Construct one per session with
// NewService and call Initialize before use; there is no shared global
// instance.
type Service struct {
	mu          sync.Mutex
	store       Store
	notifier    notify.Notifier
	broadcaster *websocket.EventBroadcaster
	events      []*models.Event

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a calendar service. The hub may be nil to disable
// WebSocket broadcasts.
func NewService(store Store, notifier notify.Notifier, hub *websocket.Hub) *Service {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Service{
		store:       store,
		notifier:    notifier,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// Initialize loads the persisted collection and runs the reminder catch-up
// pass: any event starting within the next 24 hours whose reminder is
// enabled but holds no live handle gets one scheduled. This covers restarts
// where previously scheduled reminders were lost with the process.
//
// A load failure is logged and leaves the collection empty; startup proceeds.
func (s *Service) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, lastSync, err := s.store.Load(ctx)
	if err != nil {
		log.Printf("Loading events failed, starting with empty calendar: %v", err)
		s.events = nil
		return
	}

	s.events = make([]*models.Event, 0, len(loaded))
	for i := range loaded {
		ev := loaded[i]
		s.events = append(s.events, &ev)
	}

	if lastSync.IsZero() {
		log.Printf("Loaded %d events", len(s.events))
	} else {
		log.Printf("Loaded %d events (last sync %s)", len(s.events), lastSync.Format(time.RFC3339))
	}

	s.catchUpReminders(ctx)
}

// catchUpReminders re-schedules reminders for near-future events lacking a
// live handle. Caller must hold the mutex.
func (s *Service) catchUpReminders(ctx context.Context) {
	now := s.now()
	horizon := now.Add(catchUpWindow)

	scheduled := 0
	for _, ev := range s.events {
		if !ev.WantsReminder() || ev.HasLiveReminder() {
			continue
		}
		if !ev.StartTime.After(now) || ev.StartTime.After(horizon) {
			continue
		}
		if s.scheduleReminder(ctx, ev) {
			scheduled++
		}
	}

	if scheduled > 0 {
		log.Printf("Catch-up pass scheduled %d reminders", scheduled)
		s.persist(ctx)
	}
}

// AddEvent validates the event, assigns it a fresh id, persists it, then
// schedules its reminder and expands its recurrence rule, in that order.
// Reminder scheduling runs before expansion so a failure in either does not
// block the other; each generated occurrence schedules its own reminder.
func (s *Service) AddEvent(ctx context.Context, ev *models.Event) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addEvent(ctx, ev)
}

// addEvent is the single creation path, shared by manual adds and recurrence
// expansion. Caller must hold the mutex.
func (s *Service) addEvent(ctx context.Context, ev *models.Event) (*models.Event, error) {
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}

	stored := ev.Clone()
	stored.ID = s.newEventID()
	stored.CreatedAt = s.now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	if stored.Reminder != nil {
		// Handles are only ever assigned by scheduling, never by callers.
		stored.Reminder.NotificationID = ""
	}

	s.events = append(s.events, stored)
	s.persist(ctx)

	if s.scheduleReminder(ctx, stored) {
		s.persist(ctx)
	}

	if stored.Recurring != nil {
		s.expandRecurrence(ctx, stored)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEventCreated(stored.Clone())
	}

	return stored.Clone(), nil
}

// Patch is a partial update to an event. Nil fields are left untouched;
// a non-nil Reminder replaces the reminder intent outright.
type Patch struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	Type        *models.EventType      `json:"type,omitempty"`
	StartTime   *time.Time             `json:"start_time,omitempty"`
	EndTime     *time.Time             `json:"end_time,omitempty"`
	Recurring   *models.RecurrenceRule `json:"recurring,omitempty"`
	Reminder    *models.Reminder       `json:"reminder,omitempty"`
	Metadata    models.Metadata        `json:"metadata,omitempty"`
	Color       *string                `json:"color,omitempty"`
	Completed   *bool                  `json:"completed,omitempty"`
}

// UpdateEvent merges the patch into the identified event. Any live reminder
// handle is canceled before the event is touched; if the merged event still
// requests a reminder a fresh one is scheduled against the new times.
// Returns (nil, nil) when no event has the given id.
//
// Patching Recurring does not re-expand: occurrences are materialized once
// at creation and live independently of their template afterwards.
func (s *Service) UpdateEvent(ctx context.Context, id string, patch Patch) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, nil
	}
	ev := s.events[idx]

	merged := ev.Clone()
	applyPatch(merged, patch)
	merged.UpdatedAt = s.now().UTC()

	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event update: %w", err)
	}

	// Cancel before mutating so a crash in between cannot leave a dangling
	// notification pointing at state that no longer exists.
	s.cancelReminder(ctx, ev)
	if merged.Reminder != nil {
		merged.Reminder.NotificationID = ""
	}

	s.events[idx] = merged
	s.scheduleReminder(ctx, merged)
	s.persist(ctx)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEventUpdated(merged.Clone())
	}

	return merged.Clone(), nil
}

// DeleteEvent cancels any live reminder, removes the event and persists.
// It reports whether an event was actually found and removed.
func (s *Service) DeleteEvent(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	ev := s.events[idx]

	s.cancelReminder(ctx, ev)
	s.events = append(s.events[:idx], s.events[idx+1:]...)
	s.persist(ctx)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEventDeleted(ev.ID, ev.Type, ev.Title)
	}

	return true
}

// GetEvent returns the event with the given id, or nil.
func (s *Service) GetEvent(id string) *models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	return s.events[idx].Clone()
}

// Events returns all events sorted by start time.
func (s *Service) Events() []*models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(*models.Event) bool { return true })
}

// EventsOn returns events whose start time falls within the calendar day of
// the given date (midnight to midnight in the date's location).
func (s *Service) EventsOn(date time.Time) []*models.Event {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(ev *models.Event) bool {
		return !ev.StartTime.Before(dayStart) && ev.StartTime.Before(dayEnd)
	})
}

// EventsInRange returns events with a start time in [start, end] inclusive.
func (s *Service) EventsInRange(start, end time.Time) []*models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(ev *models.Event) bool {
		return !ev.StartTime.Before(start) && !ev.StartTime.After(end)
	})
}

// UpcomingEvents returns up to limit events starting strictly after now,
// soonest first, optionally filtered by type. A zero limit means 10.
func (s *Service) UpcomingEvents(typ models.EventType, limit int) []*models.Event {
	if limit <= 0 {
		limit = defaultUpcomingLimit
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	upcoming := s.collect(func(ev *models.Event) bool {
		if typ != "" && ev.Type != typ {
			return false
		}
		return ev.StartTime.After(now)
	})

	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// MarkEventCompleted flags the event as done. It reports whether the event
// was found.
func (s *Service) MarkEventCompleted(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	ev := s.events[idx]
	ev.Completed = true
	ev.UpdatedAt = s.now().UTC()
	s.persist(ctx)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEventCompleted(ev.ID, ev.Type, ev.Title)
	}

	return true
}

// CompletedEvents returns completed events, optionally filtered by type.
func (s *Service) CompletedEvents(typ models.EventType) []*models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(ev *models.Event) bool {
		if typ != "" && ev.Type != typ {
			return false
		}
		return ev.Completed
	})
}

// ClearOldEvents drops completed events whose start time is older than
// daysToKeep days. Incomplete events are never dropped by age alone.
// A non-positive daysToKeep means 30. Returns the number removed.
func (s *Service) ClearOldEvents(ctx context.Context, daysToKeep int) int {
	if daysToKeep <= 0 {
		daysToKeep = 30
	}
	cutoff := s.now().AddDate(0, 0, -daysToKeep)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	removed := 0
	for _, ev := range s.events {
		if ev.Completed && ev.StartTime.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	s.events = kept

	if removed > 0 {
		log.Printf("Cleared %d completed events older than %d days", removed, daysToKeep)
		s.persist(ctx)
	}
	return removed
}

// EventCount returns the number of events currently held.
func (s *Service) EventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// collect returns clones of matching events sorted by start time.
// Caller must hold the mutex.
func (s *Service) collect(match func(*models.Event) bool) []*models.Event {
	var out []*models.Event
	for _, ev := range s.events {
		if match(ev) {
			out = append(out, ev.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func (s *Service) indexOf(id string) int {
	for i, ev := range s.events {
		if ev.ID == id {
			return i
		}
	}
	return -1
}

// newEventID combines a UTC timestamp with a random suffix so ids sort
// roughly by creation time and never collide within a batch.
func (s *Service) newEventID() string {
	return s.now().UTC().Format("20060102150405") + "-" + uuid.NewString()[:8]
}

// persist mirrors the in-memory collection to the store. Storage failures
// are logged, not propagated: the session keeps working off memory.
// Caller must hold the mutex.
func (s *Service) persist(ctx context.Context) {
	snapshot := make([]models.Event, len(s.events))
	for i, ev := range s.events {
		snapshot[i] = *ev.Clone()
	}

	if err := s.store.Save(ctx, snapshot, s.now().UTC()); err != nil {
		log.Printf("Persisting %d events failed: %v", len(snapshot), err)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastNotification("warning", "Storage",
				"Saving calendar changes failed; recent changes may be lost on restart")
		}
	}
}

func applyPatch(ev *models.Event, patch Patch) {
	if patch.Title != nil {
		ev.Title = *patch.Title
	}
	if patch.Description != nil {
		ev.Description = *patch.Description
	}
	if patch.Type != nil {
		ev.Type = *patch.Type
	}
	if patch.StartTime != nil {
		ev.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		ev.EndTime = *patch.EndTime
	}
	if patch.Recurring != nil {
		ev.Recurring = patch.Recurring
	}
	if patch.Reminder != nil {
		rem := *patch.Reminder
		ev.Reminder = &rem
	}
	if patch.Metadata != nil {
		ev.Metadata = patch.Metadata
	}
	if patch.Color != nil {
		ev.Color = *patch.Color
	}
	if patch.Completed != nil {
		ev.Completed = *patch.Completed
	}
}
