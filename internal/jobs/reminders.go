package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/service"
	"libraryhub/internal/notify"
)

const reminderMarkTTL = 36 * time.Hour

// ReminderLoans is the read side the reminder job needs.
type ReminderLoans interface {
	ListBorrowedDueBetween(ctx context.Context, from, to time.Time) ([]models.Loan, error)
	ListByStatus(ctx context.Context, status models.LoanStatus) ([]models.Loan, error)
}

type ReminderResult struct {
	Date    string `json:"date"`
	DueSoon int    `json:"due_soon"`
	Overdue int    `json:"overdue"`
	Deduped int    `json:"deduped"`
	Failed  int    `json:"failed"`
}

// ReminderJob sends due-soon and overdue notices, at most one per loan per day.
type ReminderJob struct {
	loans       ReminderLoans
	sender      notify.Sender
	locker      Locker
	dueSoonDays int
	logger      *slog.Logger
	now         func() time.Time
}

func NewReminderJob(loans ReminderLoans, sender notify.Sender, locker Locker, dueSoonDays int, logger *slog.Logger) *ReminderJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderJob{
		loans:       loans,
		sender:      sender,
		locker:      locker,
		dueSoonDays: dueSoonDays,
		logger:      logger,
		now:         time.Now,
	}
}

func (j *ReminderJob) RunOnce(ctx context.Context) (ReminderResult, error) {
	today := service.StartOfDay(j.now())
	res := ReminderResult{Date: today.Format(time.DateOnly)}

	dueSoon, err := j.loans.ListBorrowedDueBetween(ctx, today, today.AddDate(0, 0, j.dueSoonDays))
	if err != nil {
		return res, fmt.Errorf("reminders: %w", err)
	}
	for i := range dueSoon {
		loan := &dueSoon[i]
		days := int(service.StartOfDay(*loan.DueDate).Sub(today).Hours() / 24)
		body := fmt.Sprintf("Loan %s is due on %s (in %d day(s)).", loan.Code, loan.DueDate.Format(time.DateOnly), days)
		if days == 0 {
			body = fmt.Sprintf("Loan %s is due today.", loan.Code)
		}
		switch j.send(ctx, loan, models.NotifyDueSoon, "Loan due soon", body, res.Date) {
		case sendOK:
			res.DueSoon++
		case sendDeduped:
			res.Deduped++
		case sendFailed:
			res.Failed++
		}
	}

	overdue, err := j.loans.ListByStatus(ctx, models.LoanOverdue)
	if err != nil {
		return res, fmt.Errorf("reminders: %w", err)
	}
	for i := range overdue {
		loan := &overdue[i]
		body := fmt.Sprintf("Loan %s is overdue. Please return it as soon as possible.", loan.Code)
		if loan.DueDate != nil {
			body = fmt.Sprintf("Loan %s was due on %s. Overdue fees apply until it is returned.",
				loan.Code, loan.DueDate.Format(time.DateOnly))
		}
		switch j.send(ctx, loan, models.NotifyLoanOverdue, "Loan overdue", body, res.Date) {
		case sendOK:
			res.Overdue++
		case sendDeduped:
			res.Deduped++
		case sendFailed:
			res.Failed++
		}
	}

	j.logger.Info("reminders_finished",
		"date", res.Date,
		"due_soon", res.DueSoon,
		"overdue", res.Overdue,
		"deduped", res.Deduped,
		"failed", res.Failed,
	)
	return res, nil
}

func (j *ReminderJob) Run(ctx context.Context) error {
	_, err := j.RunOnce(ctx)
	return err
}

type sendOutcome int

const (
	sendOK sendOutcome = iota
	sendDeduped
	sendFailed
)

func (j *ReminderJob) send(ctx context.Context, loan *models.Loan, kind, subject, body, day string) sendOutcome {
	if j.locker != nil {
		key := fmt.Sprintf("libraryhub:reminder:%d:%s:%s", loan.ID, kind, day)
		first, err := j.locker.MarkOnce(ctx, key, reminderMarkTTL)
		if err != nil {
			j.logger.Warn("reminder_dedupe_failed", "loan_id", loan.ID, "error", err)
		} else if !first {
			return sendDeduped
		}
	}

	id := loan.ID
	msg := notify.Message{
		UserID:  loan.UserID,
		Type:    kind,
		LoanID:  &id,
		Subject: subject,
		Body:    body,
	}
	if loan.User != nil {
		msg.Recipient = loan.User.Email
	}
	if !j.sender.Deliver(ctx, msg) {
		j.logger.Warn("notification_delivery_failed", "user_id", loan.UserID, "loan_id", loan.ID, "type", kind)
		return sendFailed
	}
	return sendOK
}
