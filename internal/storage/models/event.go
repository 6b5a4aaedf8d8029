// Package models contains the domain models for the application.
package models

import (
	"fmt"
	"time"
)

// EventType classifies a calendar event and selects the reminder dispatch
// branch used when its reminder fires.
type EventType string

// Event type constants.
const (
	EventWorkout    EventType = "workout"
	EventMeal       EventType = "meal"
	EventSupplement EventType = "supplement"
	EventCoaching   EventType = "coaching"
	EventContest    EventType = "contest"
	EventCheckIn    EventType = "checkIn"
	EventOther      EventType = "other"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventWorkout, EventMeal, EventSupplement, EventCoaching,
		EventContest, EventCheckIn, EventOther:
		return true
	}
	return false
}

// Frequency identifies how often a recurring event repeats.
type Frequency string

// Recurrence frequency constants.
const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// RecurrenceRule describes how a template event repeats. It is present only
// on the template; generated occurrences never carry a rule, which is what
// keeps expansion from recursing.
type RecurrenceRule struct {
	Frequency Frequency `json:"frequency"`
	// DaysOfWeek uses time.Weekday numbering (0 = Sunday). Only consulted
	// for weekly rules; a weekly rule without days generates no occurrences.
	DaysOfWeek []int      `json:"days_of_week,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// Reminder captures the reminder intent for an event. NotificationID is set
// only after the notifier has accepted the reminder; it is the join key for
// later cancellation.
type Reminder struct {
	Enabled        bool   `json:"enabled"`
	MinutesBefore  int    `json:"minutes_before"`
	NotificationID string `json:"notification_id,omitempty"`
}

// Metadata carries domain references attached to an event. The calendar
// treats it as opaque apart from the well-known keys below, which drive the
// per-type reminder dispatch.
type Metadata map[string]string

// Well-known metadata keys.
const (
	MetaWorkoutID = "workoutId"
	MetaCoachID   = "coachId"
	MetaClientID  = "clientId"
	MetaSessionID = "sessionId"
)

// Event is a single scheduled calendar entry: a workout, meal, supplement
// dose, coaching session, contest milestone or check-in.
type Event struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Type        EventType       `json:"type"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Recurring   *RecurrenceRule `json:"recurring,omitempty"`
	Reminder    *Reminder       `json:"reminder,omitempty"`
	Metadata    Metadata        `json:"metadata,omitempty"`
	Color       string          `json:"color,omitempty"`
	Completed   bool            `json:"completed"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Validate checks the structural invariants that must hold before an event
// enters the collection.
func (e *Event) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("event title is required")
	}
	if !e.Type.Valid() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.StartTime.IsZero() {
		return fmt.Errorf("event start time is required")
	}
	if e.EndTime.Before(e.StartTime) {
		return fmt.Errorf("event end time %s is before start time %s",
			e.EndTime.Format(time.RFC3339), e.StartTime.Format(time.RFC3339))
	}
	if e.Recurring != nil {
		switch e.Recurring.Frequency {
		case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		default:
			return fmt.Errorf("unknown recurrence frequency %q", e.Recurring.Frequency)
		}
		for _, d := range e.Recurring.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("day of week %d out of range", d)
			}
		}
	}
	if e.Reminder != nil && e.Reminder.MinutesBefore < 0 {
		return fmt.Errorf("reminder minutes before must not be negative")
	}
	return nil
}

// Duration returns the event's length.
func (e *Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// WantsReminder reports whether a reminder should be scheduled for the event.
func (e *Event) WantsReminder() bool {
	return e.Reminder != nil && e.Reminder.Enabled
}

// HasLiveReminder reports whether the event holds a notifier handle that has
// not been canceled yet.
func (e *Event) HasLiveReminder() bool {
	return e.Reminder != nil && e.Reminder.NotificationID != ""
}

// Clone returns a deep copy of the event. The calendar service hands out
// clones so callers cannot mutate the authoritative collection.
func (e *Event) Clone() *Event {
	c := *e
	if e.Recurring != nil {
		r := *e.Recurring
		if e.Recurring.DaysOfWeek != nil {
			r.DaysOfWeek = append([]int(nil), e.Recurring.DaysOfWeek...)
		}
		if e.Recurring.EndDate != nil {
			d := *e.Recurring.EndDate
			r.EndDate = &d
		}
		c.Recurring = &r
	}
	if e.Reminder != nil {
		rem := *e.Reminder
		c.Reminder = &rem
	}
	if e.Metadata != nil {
		c.Metadata = make(Metadata, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
