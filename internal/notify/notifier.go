// Package notify schedules and delivers reminder notifications.
package notify

import (
	"context"
	"time"
)

// Reminder kind constants, one per dispatch branch.
const (
	KindWorkout    = "workout"
	KindCoaching   = "coaching"
	KindMeal       = "meal"
	KindSupplement = "supplement"
	KindGeneric    = "generic"
)

// Notifier is the scheduling collaborator the calendar service talks to.
// Every Schedule method returns an opaque handle identifying the pending
// notification, or an empty handle when the reminder was not accepted (fire
// time already passed, or delivery unsupported). An empty handle with a nil
// error is not a failure: the event stays valid, it just has no live
// reminder, and a later catch-up pass may retry.
type Notifier interface {
	// ScheduleWorkoutReminder schedules a workout reminder referencing the
	// workout to open when tapped.
	ScheduleWorkoutReminder(ctx context.Context, workoutID, title string, fireAt time.Time) (string, error)

	// ScheduleCoachingSession schedules a coaching session reminder.
	// coachSide selects the coach-facing wording; partyID identifies the
	// counterparty (client for the coach, coach for the client).
	ScheduleCoachingSession(ctx context.Context, sessionID, partyID string, fireAt time.Time, coachSide bool) (string, error)

	// ScheduleMealReminder schedules a meal reminder.
	ScheduleMealReminder(ctx context.Context, title string, fireAt time.Time) (string, error)

	// ScheduleSupplementReminder schedules a supplement reminder carrying
	// the dosage text in the body.
	ScheduleSupplementReminder(ctx context.Context, title string, fireAt time.Time, dosage string) (string, error)

	// ScheduleReminder schedules a generic reminder keyed by refID, used
	// for contest, check-in and other event types.
	ScheduleReminder(ctx context.Context, refID, title, body string, fireAt time.Time) (string, error)

	// CancelNotification cancels a pending notification by handle.
	// Canceling an unknown or already-fired handle is not an error.
	CancelNotification(ctx context.Context, handle string) error
}
