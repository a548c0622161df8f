package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultCompletionSchedule runs the booking completion job every minute.
const DefaultCompletionSchedule = "@every 1m"

// BookingCompleter closes bookings whose end time has passed.
type BookingCompleter interface {
	CompleteExpired() []string
}

// JobService runs the development backend's periodic jobs.
type JobService struct {
	bookings BookingCompleter
	log      *zap.SugaredLogger
	cron     *cron.Cron
}

func NewJobService(bookings BookingCompleter, log *zap.SugaredLogger) *JobService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &JobService{bookings: bookings, log: log, cron: cron.New()}
}

// UpdateFinishedBookings marks confirmed and active bookings that have
// ended as completed and returns how many changed.
func (s *JobService) UpdateFinishedBookings() int {
	ids := s.bookings.CompleteExpired()
	if len(ids) == 0 {
		s.log.Debug("cron job: no bookings past their end time")
		return 0
	}
	s.log.Infow("cron job: bookings marked as completed", "count", len(ids), "ids", ids)
	return len(ids)
}

// Schedule registers UpdateFinishedBookings with the cron spec.
func (s *JobService) Schedule(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.UpdateFinishedBookings() }); err != nil {
		return fmt.Errorf("schedule booking completion %q: %w", spec, err)
	}
	return nil
}

func (s *JobService) Start() {
	s.cron.Start()
}

// Stop waits for a running job to finish or ctx to end.
func (s *JobService) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
