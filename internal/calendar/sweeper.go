package calendar

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/fitcal/backend/internal/storage"
)

// RetentionPolicy supplies the configured retention window.
type RetentionPolicy interface {
	RetentionDays(ctx context.Context) (int, error)
}

// RetentionSweeper periodically clears completed events older than the
// configured retention window.
type RetentionSweeper struct {
	cron    *cron.Cron
	service *Service
	policy  RetentionPolicy
}

// NewRetentionSweeper creates a sweeper for the given service. The policy
// may be nil, in which case the default retention window applies.
func NewRetentionSweeper(service *Service, policy RetentionPolicy) *RetentionSweeper {
	return &RetentionSweeper{
		cron:    cron.New(),
		service: service,
		policy:  policy,
	}
}

// Start begins the nightly sweep.
func (s *RetentionSweeper) Start() {
	log.Println("Starting retention sweeper...")

	s.cron.AddFunc("@daily", func() {
		s.sweep()
	})

	s.cron.Start()
	log.Println("Retention sweeper started")
}

// Stop gracefully shuts down the sweeper.
func (s *RetentionSweeper) Stop() {
	log.Println("Stopping retention sweeper...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Retention sweeper stopped")
}

func (s *RetentionSweeper) sweep() {
	ctx := context.Background()

	days := storage.DefaultRetentionDays
	if s.policy != nil {
		d, err := s.policy.RetentionDays(ctx)
		if err != nil {
			log.Printf("Reading retention setting failed, using %d days: %v", days, err)
		} else {
			days = d
		}
	}

	s.service.ClearOldEvents(ctx, days)
}
