package usecase

import (
	"context"
	"fmt"
	"time"

	"car-share/internal/data/repository"
	"car-share/pkg/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReservationSweeper expires reservations whose checkout was abandoned so their dates are
// bookable again, and drops expired sessions once a day.
type ReservationSweeper struct {
	repo     *repository.Repository
	cron     *cron.Cron
	schedule string
	ttl      time.Duration
	timeout  time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func NewReservationSweeper(repo *repository.Repository, config *utils.Config, log *zap.Logger) *ReservationSweeper {
	schedule := config.Reservation.SweepSchedule
	if schedule == "" {
		schedule = "@every 1m"
	}

	return &ReservationSweeper{
		repo:     repo,
		cron:     cron.New(),
		schedule: schedule,
		ttl:      checkoutWindow(config.Reservation.TTL) + sweepGrace,
		timeout:  30 * time.Second,
		now:      time.Now,
		log:      log.With(zap.String("service", "sweeper")),
	}
}

func (s *ReservationSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.run(s.Sweep)); err != nil {
		return fmt.Errorf("schedule reservation sweep %q: %w", s.schedule, err)
	}
	if _, err := s.cron.AddFunc("@daily", s.run(s.CleanSessions)); err != nil {
		return fmt.Errorf("schedule session cleanup: %w", err)
	}

	s.cron.Start()
	s.log.Info("Sweeper started", zap.String("schedule", s.schedule), zap.Duration("ttl", s.ttl))
	return nil
}

// Stop waits for a running job to finish.
func (s *ReservationSweeper) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Sweeper stopped")
}

func (s *ReservationSweeper) run(job func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := job(ctx); err != nil {
			s.log.Error("Scheduled job failed", zap.Error(err))
		}
	}
}

// Sweep expires pending reservations whose checkout session closed more than sweepGrace
// ago without the platform reporting back.
func (s *ReservationSweeper) Sweep(ctx context.Context) error {
	cutoff := s.now().Add(-s.ttl)

	expired, err := s.repo.Reservation.ExpirePendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expire reservations: %w", err)
	}
	if expired > 0 {
		s.log.Info("Expired abandoned reservations", zap.Int64("count", expired), zap.Time("cutoff", cutoff))
	}
	return nil
}

func (s *ReservationSweeper) CleanSessions(ctx context.Context) error {
	removed, err := s.repo.Session.CleanExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("clean sessions: %w", err)
	}
	s.log.Debug("Expired sessions removed", zap.Int64("count", removed))
	return nil
}
