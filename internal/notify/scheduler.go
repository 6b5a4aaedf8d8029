package notify

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/fitcal/backend/internal/websocket"
)

const defaultPollInterval = 15 * time.Second

// pending is a reminder waiting for its fire time.
type pending struct {
	Handle string
	Kind   string
	RefID  string
	Title  string
	Body   string
	FireAt time.Time
}

// Scheduler is the in-process Notifier implementation. Pending reminders are
// held in memory and a cron job sweeps for due ones, delivering them to
// connected clients through the WebSocket hub. Durability across restarts is
// the calendar service's job: its startup catch-up pass re-schedules
// reminders for near-future events without a live handle.
type Scheduler struct {
	cron         *cron.Cron
	broadcaster  *websocket.EventBroadcaster
	pollInterval time.Duration

	mu      sync.Mutex
	pending map[string]pending

	// now is swappable for tests.
	now func() time.Time
}

// NewScheduler creates a reminder scheduler delivering through the given hub.
// The hub may be nil, in which case fired reminders are only logged.
func NewScheduler(hub *websocket.Hub, pollInterval time.Duration) *Scheduler {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Scheduler{
		cron:         cron.New(cron.WithSeconds()),
		broadcaster:  broadcaster,
		pollInterval: pollInterval,
		pending:      make(map[string]pending),
		now:          time.Now,
	}
}

// Start begins the dispatch loop.
func (s *Scheduler) Start() {
	log.Println("Starting reminder scheduler...")

	s.cron.AddFunc("@every "+s.pollInterval.String(), func() {
		s.dispatchDue()
	})

	s.cron.Start()
	log.Printf("Reminder scheduler started (poll interval %s)", s.pollInterval)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	log.Println("Stopping reminder scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Reminder scheduler stopped")
}

// PendingCount returns the number of reminders waiting to fire.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// ScheduleWorkoutReminder implements Notifier.
func (s *Scheduler) ScheduleWorkoutReminder(ctx context.Context, workoutID, title string, fireAt time.Time) (string, error) {
	return s.schedule(pending{
		Kind:   KindWorkout,
		RefID:  workoutID,
		Title:  "Workout Reminder",
		Body:   "Time to train: " + title,
		FireAt: fireAt,
	})
}

// ScheduleCoachingSession implements Notifier.
func (s *Scheduler) ScheduleCoachingSession(ctx context.Context, sessionID, partyID string, fireAt time.Time, coachSide bool) (string, error) {
	body := "Your coaching session is coming up"
	if coachSide {
		body = "Session with your client is coming up"
	}
	if partyID != "" {
		body += " (" + partyID + ")"
	}
	return s.schedule(pending{
		Kind:   KindCoaching,
		RefID:  sessionID,
		Title:  "Coaching Session",
		Body:   body,
		FireAt: fireAt,
	})
}

// ScheduleMealReminder implements Notifier.
func (s *Scheduler) ScheduleMealReminder(ctx context.Context, title string, fireAt time.Time) (string, error) {
	return s.schedule(pending{
		Kind:   KindMeal,
		Title:  "Meal Time",
		Body:   title,
		FireAt: fireAt,
	})
}

// ScheduleSupplementReminder implements Notifier.
func (s *Scheduler) ScheduleSupplementReminder(ctx context.Context, title string, fireAt time.Time, dosage string) (string, error) {
	body := title
	if dosage != "" {
		body += " (" + dosage + ")"
	}
	return s.schedule(pending{
		Kind:   KindSupplement,
		Title:  "Supplement Reminder",
		Body:   body,
		FireAt: fireAt,
	})
}

// ScheduleReminder implements Notifier.
func (s *Scheduler) ScheduleReminder(ctx context.Context, refID, title, body string, fireAt time.Time) (string, error) {
	return s.schedule(pending{
		Kind:   KindGeneric,
		RefID:  refID,
		Title:  title,
		Body:   body,
		FireAt: fireAt,
	})
}

// CancelNotification implements Notifier.
func (s *Scheduler) CancelNotification(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[handle]; ok {
		delete(s.pending, handle)
		log.Printf("Canceled reminder %s", handle)
	}
	return nil
}

func (s *Scheduler) schedule(p pending) (string, error) {
	// A fire time in the past is skipped, not fired late.
	if !p.FireAt.After(s.now()) {
		log.Printf("Skipping %s reminder %q: fire time %s already passed",
			p.Kind, p.Title, p.FireAt.Format(time.RFC3339))
		return "", nil
	}

	p.Handle = uuid.NewString()

	s.mu.Lock()
	s.pending[p.Handle] = p
	s.mu.Unlock()

	log.Printf("Scheduled %s reminder %s for %s", p.Kind, p.Handle, p.FireAt.Format(time.RFC3339))
	return p.Handle, nil
}

// dispatchDue fires every pending reminder whose time has come.
func (s *Scheduler) dispatchDue() {
	now := s.now()

	s.mu.Lock()
	var due []pending
	for handle, p := range s.pending {
		if !p.FireAt.After(now) {
			due = append(due, p)
			delete(s.pending, handle)
		}
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return
	}

	// Oldest first so a backlog drains in order.
	sort.Slice(due, func(i, j int) bool { return due[i].FireAt.Before(due[j].FireAt) })

	for _, p := range due {
		log.Printf("Firing %s reminder %s: %s", p.Kind, p.Handle, p.Title)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastReminderFired(websocket.ReminderFiredPayload{
				NotificationID: p.Handle,
				Kind:           p.Kind,
				RefID:          p.RefID,
				Title:          p.Title,
				Body:           p.Body,
				FireAt:         p.FireAt,
			})
		}
	}
}
