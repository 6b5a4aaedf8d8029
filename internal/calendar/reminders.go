package calendar

import (
	"context"
	"log"
	"time"

	"github.com/fitcal/backend/internal/storage/models"
)

// scheduleReminder translates an event's reminder intent into the matching
// notifier call and records the returned handle on the event. It reports
// whether a handle was recorded. Caller must hold the mutex.
//
// Reminders are best-effort: a notifier refusal or failure leaves the event
// without a handle, and the next catch-up pass will retry.
func (s *Service) scheduleReminder(ctx context.Context, ev *models.Event) bool {
	if !ev.WantsReminder() {
		return false
	}

	fireAt := ev.StartTime.Add(-time.Duration(ev.Reminder.MinutesBefore) * time.Minute)
	if !fireAt.After(s.now()) {
		log.Printf("Event %s: reminder time %s already passed, not scheduling",
			ev.ID, fireAt.Format(time.RFC3339))
		return false
	}

	var handle string
	var err error

	switch ev.Type {
	case models.EventWorkout:
		handle, err = s.notifier.ScheduleWorkoutReminder(ctx, metaOr(ev, models.MetaWorkoutID, ev.ID), ev.Title, fireAt)

	case models.EventCoaching:
		// An event carrying the client's id belongs to the coach's
		// calendar, and vice versa; the counterparty id rides along in
		// the notification payload.
		coachSide := ev.Metadata[models.MetaClientID] != ""
		partyID := ev.Metadata[models.MetaClientID]
		if !coachSide {
			partyID = ev.Metadata[models.MetaCoachID]
		}
		handle, err = s.notifier.ScheduleCoachingSession(ctx, metaOr(ev, models.MetaSessionID, ev.ID), partyID, fireAt, coachSide)

	case models.EventMeal:
		handle, err = s.notifier.ScheduleMealReminder(ctx, ev.Title, fireAt)

	case models.EventSupplement:
		handle, err = s.notifier.ScheduleSupplementReminder(ctx, ev.Title, fireAt, ev.Description)

	default:
		handle, err = s.notifier.ScheduleReminder(ctx, ev.ID, ev.Title, ev.Description, fireAt)
	}

	if err != nil {
		log.Printf("Event %s: scheduling reminder failed: %v", ev.ID, err)
		return false
	}
	if handle == "" {
		return false
	}

	ev.Reminder.NotificationID = handle
	if s.broadcaster != nil {
		s.broadcaster.BroadcastReminderScheduled(ev.ID, handle, fireAt)
	}
	return true
}

// cancelReminder cancels the event's live notifier handle, if any, and
// clears it. Cancellation failures are logged and the handle cleared anyway;
// at worst a stale notification fires once. Caller must hold the mutex.
func (s *Service) cancelReminder(ctx context.Context, ev *models.Event) {
	if !ev.HasLiveReminder() {
		return
	}

	if err := s.notifier.CancelNotification(ctx, ev.Reminder.NotificationID); err != nil {
		log.Printf("Event %s: canceling reminder %s failed: %v", ev.ID, ev.Reminder.NotificationID, err)
	}
	ev.Reminder.NotificationID = ""
}

// metaOr returns the metadata value for key, or fallback when absent.
func metaOr(ev *models.Event, key, fallback string) string {
	if v := ev.Metadata[key]; v != "" {
		return v
	}
	return fallback
}
