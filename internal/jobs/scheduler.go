// Package jobs runs the daily background work: the overdue sweep and due-date
// reminders.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs a job once on Start and then every day at Hour:00 UTC.
type Scheduler struct {
	name   string
	hour   int
	run    func(ctx context.Context) error
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(name string, hour int, run func(ctx context.Context) error, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		name:   name,
		hour:   hour,
		run:    run,
		logger: logger,
		now:    time.Now,
	}
}

// nextRun is the first Hour:00 UTC strictly after from.
func nextRun(from time.Time, hour int) time.Time {
	from = from.UTC()
	next := time.Date(from.Year(), from.Month(), from.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start launches the loop. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("scheduler_started", "job", s.name, "hour_utc", s.hour)

		// run immediately on start
		s.runOnce(ctx)

		for {
			wait := time.Until(nextRun(s.now(), s.hour))
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
				s.runOnce(ctx)
			case <-ctx.Done():
				timer.Stop()
				s.logger.Info("scheduler_stopped", "job", s.name)
				return
			}
		}
	}()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.run(ctx); err != nil {
		s.logger.Error("scheduled_job_failed", "job", s.name, "error", err)
	}
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}
