package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/driveease/service-rental/internal/application"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReminderSender runs one reminder sweep.
type ReminderSender interface {
	SendDueReminders(ctx context.Context) (*application.ReminderSummary, error)
}

// Scheduler runs the reminder sweep on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	reminders ReminderSender
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a Scheduler that evaluates spec in loc.
func New(spec string, loc *time.Location, reminders ReminderSender, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		reminders: reminders,
		timeout:   5 * time.Minute,
		logger:    logger,
	}
	if _, err := s.cron.AddFunc(spec, s.runReminders); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("reminder scheduler started")
}

// Stop halts the schedule and waits for a running sweep, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("reminder sweep still running at shutdown")
	}
}

func (s *Scheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.reminders.SendDueReminders(ctx); err != nil {
		s.logger.Error("scheduled reminder sweep failed", zap.Error(err))
	}
}
