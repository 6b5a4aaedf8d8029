package calendar

import (
	"context"
	"log"
	"time"

	"github.com/fitcal/backend/internal/storage/models"
)

// defaultHorizonMonths bounds expansion when a rule has no end date.
const defaultHorizonMonths = 3

// expandRecurrence materializes a template event's rule into independent
// occurrences, each created through the normal add path so it gets its own
// id, its own persisted row and its own reminder. Expansion is one-shot:
// later edits to the template never touch occurrences already generated.
// Caller must hold the mutex.
func (s *Service) expandRecurrence(ctx context.Context, template *models.Event) {
	rule := template.Recurring

	if rule.Frequency == models.FrequencyWeekly && len(rule.DaysOfWeek) == 0 {
		// A weekly rule selects nothing without days of week. Left as-is
		// pending a product decision on what such a rule should mean.
		log.Printf("Event %s: weekly rule has no days of week, no occurrences generated", template.ID)
		return
	}

	occs := occurrences(template)
	created := 0
	for _, occ := range occs {
		if _, err := s.addEvent(ctx, occ); err != nil {
			// Best-effort sequential: occurrences created so far stay.
			log.Printf("Event %s: creating occurrence for %s failed: %v",
				template.ID, occ.StartTime.Format(time.RFC3339), err)
			break
		}
		created++
	}

	if created > 0 {
		log.Printf("Event %s: generated %d %s occurrences", template.ID, created, rule.Frequency)
	}
}

// occurrences walks forward one calendar day at a time, starting the day
// after the template's date, through the horizon (the rule's end date, or
// three months past the start). Each qualifying day yields a copy of the
// template at the same time of day with the same duration, with the rule
// cleared and any reminder handle blanked.
func occurrences(template *models.Event) []*models.Event {
	rule := template.Recurring
	start := template.StartTime
	duration := template.Duration()

	horizon := start.AddDate(0, defaultHorizonMonths, 0)
	if rule.EndDate != nil {
		horizon = *rule.EndDate
	}
	horizonDay := dateOf(horizon)

	weekdays := make(map[int]bool, len(rule.DaysOfWeek))
	for _, d := range rule.DaysOfWeek {
		weekdays[d] = true
	}

	var out []*models.Event
	for day := dateOf(start).AddDate(0, 0, 1); !day.After(horizonDay); day = day.AddDate(0, 0, 1) {
		switch rule.Frequency {
		case models.FrequencyDaily:
			// Every day qualifies.
		case models.FrequencyWeekly:
			if !weekdays[int(day.Weekday())] {
				continue
			}
		case models.FrequencyMonthly:
			// Matching the template's day-of-month while walking real
			// calendar days means months too short to contain it (day 31
			// in April, day 30 in February) are skipped, not clamped.
			if day.Day() != start.Day() {
				continue
			}
		default:
			continue
		}

		occ := template.Clone()
		occ.ID = ""
		occ.Recurring = nil
		occ.Completed = false
		occ.StartTime = time.Date(day.Year(), day.Month(), day.Day(),
			start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
		occ.EndTime = occ.StartTime.Add(duration)
		if occ.Reminder != nil {
			occ.Reminder.NotificationID = ""
		}
		out = append(out, occ)
	}

	return out
}

// dateOf truncates a timestamp to midnight in its own location.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
