package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"libraryhub/internal/microservices/http-api/service"
)

const (
	overdueLockKey = "libraryhub:jobs:overdue-sweep"
	overdueLockTTL = 30 * time.Minute
)

// OverdueCandidates lists loans the sweep should look at.
type OverdueCandidates interface {
	ListOverdueCandidateIDs(ctx context.Context, today time.Time) ([]int64, error)
}

// OverdueEscalator performs the per-loan sweep step.
type OverdueEscalator interface {
	EscalateOverdue(ctx context.Context, loanID int64, today time.Time) (service.EscalationResult, error)
}

// SweepResult summarizes one run of the overdue sweep.
type SweepResult struct {
	Date       string `json:"date"`
	Candidates int    `json:"candidates"`
	Escalated  int    `json:"escalated"`
	Invoiced   int    `json:"invoiced"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	// LockHeld is set when another run owned the lock and nothing was done.
	LockHeld bool `json:"lock_held"`
}

// OverdueSweeper moves past-due loans to overdue and keeps their overdue
// invoices current. Running it more than once per day changes nothing.
type OverdueSweeper struct {
	loans  OverdueCandidates
	loanSv OverdueEscalator
	locker Locker
	logger *slog.Logger
	now    func() time.Time
}

func NewOverdueSweeper(loans OverdueCandidates, loanSv OverdueEscalator, locker Locker, logger *slog.Logger) *OverdueSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverdueSweeper{
		loans:  loans,
		loanSv: loanSv,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

// RunOnce sweeps every candidate loan, each in its own transaction. A failing
// loan is logged and counted without stopping the run.
func (s *OverdueSweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	today := service.StartOfDay(s.now())
	res := SweepResult{Date: today.Format(time.DateOnly)}

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, overdueLockKey, overdueLockTTL)
		if err != nil {
			// redis trouble must not stop the sweep; row locks keep it correct
			s.logger.Warn("overdue_sweep_lock_failed", "error", err)
		} else if !ok {
			s.logger.Info("overdue_sweep_skipped", "reason", "lock_held")
			res.LockHeld = true
			return res, nil
		} else {
			defer func() {
				if err := s.locker.Unlock(context.WithoutCancel(ctx), overdueLockKey, token); err != nil {
					s.logger.Warn("overdue_sweep_unlock_failed", "error", err)
				}
			}()
		}
	}

	start := time.Now()
	s.logger.Info("overdue_sweep_started", "date", res.Date)

	ids, err := s.loans.ListOverdueCandidateIDs(ctx, today)
	if err != nil {
		return res, fmt.Errorf("overdue sweep: %w", err)
	}
	res.Candidates = len(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		step, err := s.loanSv.EscalateOverdue(ctx, id, today)
		if err != nil {
			res.Failed++
			s.logger.Error("overdue_sweep_loan_failed", "loan_id", id, "error", err)
			continue
		}
		if step.Skipped {
			res.Skipped++
			continue
		}
		if step.Escalated {
			res.Escalated++
		}
		if step.InvoiceCreated {
			res.Invoiced++
		}
	}

	s.logger.Info("overdue_sweep_finished",
		"date", res.Date,
		"candidates", res.Candidates,
		"escalated", res.Escalated,
		"invoiced", res.Invoiced,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"duration", time.Since(start),
	)
	return res, nil
}

// Run adapts RunOnce to the Scheduler.
func (s *OverdueSweeper) Run(ctx context.Context) error {
	_, err := s.RunOnce(ctx)
	return err
}
