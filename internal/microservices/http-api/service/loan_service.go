package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/notify"

	"github.com/google/uuid"
)

// LoanPolicy holds the lending constants.
type LoanPolicy struct {
	LoanDays      int
	RenewDays     int
	MaxRenew      int
	PickupBaseURL string // pickup links are <base>/pickup?token=...
}

// EscalationResult reports what one sweep step did to a loan.
type EscalationResult struct {
	Skipped        bool
	Escalated      bool // borrowed -> overdue
	InvoiceCreated bool
	InvoiceID      int64
}

// LoanService is the loan state machine:
//
//	pending -> borrowed -> returned
//	                    -> overdue -> returned | lost
//	pending -> canceled
//
// Every transition runs in one transaction with the loan row locked before its
// status is checked; inventory changes go through the InventoryLedger in the
// same transaction.
type LoanService interface {
	Checkout(ctx context.Context, userID string) (*models.Loan, error)
	Confirm(ctx context.Context, loanID int64) (*models.Loan, error)
	Cancel(ctx context.Context, actor Actor, loanID int64) (*models.Loan, error)
	Return(ctx context.Context, loanID int64) (*models.Loan, error)
	Renew(ctx context.Context, actor Actor, loanID int64) (*models.Loan, error)
	MarkLost(ctx context.Context, loanID int64) (*models.Loan, error)
	// EscalateOverdue is one step of the overdue sweep for a single loan.
	EscalateOverdue(ctx context.Context, loanID int64, today time.Time) (EscalationResult, error)

	Get(ctx context.Context, actor Actor, loanID int64) (*models.Loan, error)
	List(ctx context.Context, actor Actor, filter dto.LoanFilter) ([]models.Loan, int64, error)

	PickupToken(ctx context.Context, actor Actor, loanID int64) (*dto.PickupTokenResponse, error)
	// Scan resolves a pickup token to the loan manifest for staff.
	Scan(ctx context.Context, token string) (*models.Loan, error)
}

type loanService struct {
	tx          repository.Transactor
	loans       repository.LoanRepository
	carts       repository.CartRepository
	invoiceRepo repository.InvoiceRepository
	ledger      InventoryLedger
	invoices    InvoiceService
	tokens      PickupTokenSigner
	sender      notify.Sender
	policy      LoanPolicy
	logger      *slog.Logger
	now         func() time.Time
}

func NewLoanService(
	tx repository.Transactor,
	loans repository.LoanRepository,
	carts repository.CartRepository,
	invoiceRepo repository.InvoiceRepository,
	ledger InventoryLedger,
	invoices InvoiceService,
	tokens PickupTokenSigner,
	sender notify.Sender,
	policy LoanPolicy,
	logger *slog.Logger,
) LoanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &loanService{
		tx:          tx,
		loans:       loans,
		carts:       carts,
		invoiceRepo: invoiceRepo,
		ledger:      ledger,
		invoices:    invoices,
		tokens:      tokens,
		sender:      sender,
		policy:      policy,
		logger:      logger,
		now:         time.Now,
	}
}

func newLoanCode() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "LN-" + strings.ToUpper(hex[:12])
}

func stockLines(items []models.LoanItem) []StockLine {
	lines := make([]StockLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, StockLine{BookID: it.BookID, Quantity: it.Quantity})
	}
	return lines
}

// lockLoan loads and locks the loan inside the current transaction.
func (s *loanService) lockLoan(ctx context.Context, loanID int64) (*models.Loan, error) {
	loan, err := s.loans.GetForUpdate(ctx, loanID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: loan %d", ErrNotFound, loanID)
		}
		return nil, err
	}
	return loan, nil
}

func (s *loanService) Checkout(ctx context.Context, userID string) (*models.Loan, error) {
	var loan *models.Loan
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// a second checkout of the same cart blocks here and then sees it empty
		items, err := s.carts.ListForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		unpaid, err := s.invoiceRepo.HasUnpaid(ctx, userID, models.InvoiceTypeOverdue)
		if err != nil {
			return err
		}
		if unpaid {
			return ErrUnpaidOverdueFee
		}

		// the cart check was advisory; this locked read is the authoritative one
		lines := make([]StockLine, 0, len(items))
		loanItems := make([]models.LoanItem, 0, len(items))
		for _, it := range items {
			lines = append(lines, StockLine{BookID: it.BookID, Quantity: it.Quantity})
			loanItems = append(loanItems, models.LoanItem{BookID: it.BookID, Quantity: it.Quantity})
		}
		if err := s.ledger.Reserve(ctx, lines); err != nil {
			return err
		}

		loan = &models.Loan{
			UserID: userID,
			Code:   newLoanCode(),
			Status: models.LoanPending,
			Items:  loanItems,
		}
		if err := s.loans.Create(ctx, loan); err != nil {
			return err
		}
		cleared, err := s.carts.Clear(ctx, userID)
		if err != nil {
			return err
		}
		if cleared != int64(len(items)) {
			return fmt.Errorf("%w: expected %d lines, removed %d", ErrCartChanged, len(items), cleared)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan_checked_out",
		"loan_id", loan.ID,
		"user_id", userID,
		"code", loan.Code,
		"lines", len(loan.Items),
	)
	s.deliver(ctx, loanMessage(loan, models.NotifyLoanReserved, "Books reserved",
		fmt.Sprintf("Loan %s is reserved. Show the pickup code at the desk to collect your books.", loan.Code)))
	return loan, nil
}

func (s *loanService) Confirm(ctx context.Context, loanID int64) (*models.Loan, error) {
	var loan *models.Loan
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if loan, err = s.lockLoan(ctx, loanID); err != nil {
			return err
		}
		if loan.Status != models.LoanPending {
			return fmt.Errorf("%w: loan is %s", ErrNotPending, loan.Status)
		}

		now := s.now().UTC()
		due := StartOfDay(now).AddDate(0, 0, s.policy.LoanDays)
		if err := s.loans.UpdateFields(ctx, loan.ID, map[string]any{
			"status":    models.LoanBorrowed,
			"borrow_at": now,
			"due_date":  due,
		}); err != nil {
			return err
		}
		loan.Status = models.LoanBorrowed
		loan.BorrowAt = &now
		loan.DueDate = &due
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan_confirmed", "loan_id", loan.ID, "due_date", loan.DueDate.Format(time.DateOnly))
	s.deliver(ctx, loanMessage(loan, models.NotifyLoanBorrowed, "Books picked up",
		fmt.Sprintf("Loan %s is due on %s.", loan.Code, loan.DueDate.Format(time.DateOnly))))
	return loan, nil
}

func (s *loanService) Cancel(ctx context.Context, actor Actor, loanID int64) (*models.Loan, error) {
	var loan *models.Loan
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if loan, err = s.lockLoan(ctx, loanID); err != nil {
			return err
		}
		if !actor.CanAccess(loan.UserID) {
			return ErrForbidden
		}
		if loan.Status != models.LoanPending {
			return fmt.Errorf("%w: loan is %s", ErrNotCancelable, loan.Status)
		}
		if err := s.ledger.Release(ctx, stockLines(loan.Items)); err != nil {
			return err
		}
		if err := s.loans.UpdateFields(ctx, loan.ID, map[string]any{"status": models.LoanCanceled}); err != nil {
			return err
		}
		loan.Status = models.LoanCanceled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan_canceled", "loan_id", loan.ID, "by", actor.UserID)
	s.deliver(ctx, loanMessage(loan, models.NotifyLoanCanceled, "Reservation canceled",
		fmt.Sprintf("Loan %s was canceled and the copies were released.", loan.Code)))
	return loan, nil
}

func (s *loanService) Return(ctx context.Context, loanID int64) (*models.Loan, error) {
	var loan *models.Loan
	var invoice *models.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if loan, err = s.lockLoan(ctx, loanID); err != nil {
			return err
		}
		if loan.Status != models.LoanBorrowed && loan.Status != models.LoanOverdue {
			return fmt.Errorf("%w: loan is %s", ErrNotReturnable, loan.Status)
		}

		now := s.now().UTC()
		today := StartOfDay(now)
		late := loan.Status == models.LoanOverdue || (loan.DueDate != nil && loan.DueDate.Before(today))

		if err := s.ledger.Release(ctx, stockLines(loan.Items)); err != nil {
			return err
		}
		if err := s.loans.UpdateFields(ctx, loan.ID, map[string]any{
			"status":    models.LoanReturned,
			"return_at": now,
		}); err != nil {
			return err
		}
		loan.Status = models.LoanReturned
		loan.ReturnAt = &now

		if late && loan.DueDate != nil {
			// bill up to the return day
			if invoice, _, err = s.invoices.UpsertOverdue(ctx, loan, today); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	attrs := []any{"loan_id", loan.ID}
	if invoice != nil {
		attrs = append(attrs, "invoice_id", invoice.ID, "amount_vnd", invoice.AmountVND)
	}
	s.logger.Info("loan_returned", attrs...)
	body := fmt.Sprintf("Loan %s was returned. Thank you.", loan.Code)
	if invoice != nil && invoice.Status == models.InvoiceUnpaid {
		body = fmt.Sprintf("Loan %s was returned %d day(s) late. %d VND is due on invoice #%d.",
			loan.Code, invoice.DaysOverdue, invoice.AmountVND, invoice.ID)
	}
	s.deliver(ctx, loanMessage(loan, models.NotifyLoanReturned, "Books returned", body))
	return loan, nil
}

func (s *loanService) Renew(ctx context.Context, actor Actor, loanID int64) (*models.Loan, error) {
	var loan *models.Loan
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if loan, err = s.lockLoan(ctx, loanID); err != nil {
			return err
		}
		if !actor.CanAccess(loan.UserID) {
			return ErrForbidden
		}
		if loan.Status != models.LoanBorrowed || loan.DueDate == nil {
			return fmt.Errorf("%w: loan is %s", ErrNotRenewable, loan.Status)
		}
		if loan.RenewCount >= s.policy.MaxRenew {
			return fmt.Errorf("%w: %d of %d used", ErrRenewLimitReached, loan.RenewCount, s.policy.MaxRenew)
		}
		today := StartOfDay(s.now())
		if today.After(StartOfDay(*loan.DueDate)) {
			return ErrPastDue
		}
		unpaid, err := s.invoiceRepo.HasUnpaid(ctx, loan.UserID, "")
		if err != nil {
			return err
		}
		if unpaid {
			return ErrUnpaidInvoice
		}

		due := StartOfDay(*loan.DueDate).AddDate(0, 0, s.policy.RenewDays)
		count := loan.RenewCount + 1
		if err := s.loans.UpdateFields(ctx, loan.ID, map[string]any{
			"due_date":    due,
			"renew_count": count,
		}); err != nil {
			return err
		}
		loan.DueDate = &due
		loan.RenewCount = count
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan_renewed",
		"loan_id", loan.ID,
		"renew_count", loan.RenewCount,
		"due_date", loan.DueDate.Format(time.DateOnly),
	)
	return loan, nil
}

func (s *loanService) MarkLost(ctx context.Context, loanID int64) (*models.Loan, error) {
	var loan *models.Loan
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if loan, err = s.lockLoan(ctx, loanID); err != nil {
			return err
		}
		if loan.Status != models.LoanBorrowed && loan.Status != models.LoanOverdue {
			return fmt.Errorf("%w: loan is %s", ErrNotLosable, loan.Status)
		}
		// the copies leave the collection, so total shrinks with them
		if err := s.ledger.Retire(ctx, stockLines(loan.Items)); err != nil {
			return err
		}
		if err := s.loans.UpdateFields(ctx, loan.ID, map[string]any{"status": models.LoanLost}); err != nil {
			return err
		}
		loan.Status = models.LoanLost
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("loan_marked_lost", "loan_id", loan.ID)
	return loan, nil
}

func (s *loanService) EscalateOverdue(ctx context.Context, loanID int64, today time.Time) (EscalationResult, error) {
	today = StartOfDay(today)
	var res EscalationResult
	var loan *models.Loan
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.loans.GetForUpdate(ctx, loanID)
		if err != nil {
			if repository.IsNotFound(err) {
				res.Skipped = true
				return nil
			}
			return err
		}
		// re-checked under the lock: a concurrent return drops the loan out
		if loan.Status != models.LoanBorrowed && loan.Status != models.LoanOverdue {
			res.Skipped = true
			return nil
		}
		if loan.DueDate == nil || !StartOfDay(*loan.DueDate).Before(today) {
			res.Skipped = true
			return nil
		}

		if loan.Status == models.LoanBorrowed {
			if err := s.loans.UpdateFields(ctx, loan.ID, map[string]any{"status": models.LoanOverdue}); err != nil {
				return err
			}
			loan.Status = models.LoanOverdue
			res.Escalated = true
		}

		inv, created, err := s.invoices.UpsertOverdue(ctx, loan, today)
		if err != nil {
			return err
		}
		res.InvoiceCreated = created
		res.InvoiceID = inv.ID
		return nil
	})
	if err != nil {
		return EscalationResult{}, err
	}

	if res.Escalated {
		s.logger.Info("loan_escalated_overdue", "loan_id", loan.ID, "invoice_id", res.InvoiceID)
		s.deliver(ctx, loanMessage(loan, models.NotifyLoanOverdue, "Loan overdue",
			fmt.Sprintf("Loan %s was due on %s. Overdue fees apply until it is returned.",
				loan.Code, loan.DueDate.Format(time.DateOnly))))
	}
	return res, nil
}

func (s *loanService) Get(ctx context.Context, actor Actor, loanID int64) (*models.Loan, error) {
	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: loan %d", ErrNotFound, loanID)
		}
		return nil, err
	}
	if !actor.CanAccess(loan.UserID) {
		return nil, ErrForbidden
	}
	return loan, nil
}

func (s *loanService) List(ctx context.Context, actor Actor, filter dto.LoanFilter) ([]models.Loan, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, invalid("%v", err)
	}
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	return s.loans.List(ctx, filter)
}

func (s *loanService) PickupToken(ctx context.Context, actor Actor, loanID int64) (*dto.PickupTokenResponse, error) {
	loan, err := s.Get(ctx, actor, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanPending {
		return nil, fmt.Errorf("%w: loan is %s", ErrNotPending, loan.Status)
	}
	token, expiresAt, err := s.tokens.Sign(loan.ID, loan.Code)
	if err != nil {
		return nil, err
	}
	base := strings.TrimRight(s.policy.PickupBaseURL, "/")
	return &dto.PickupTokenResponse{
		LoanID:    loan.ID,
		Code:      loan.Code,
		Token:     token,
		URL:       base + "/pickup?token=" + url.QueryEscape(token),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *loanService) Scan(ctx context.Context, token string) (*models.Loan, error) {
	loanID, code, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: loan %d", ErrNotFound, loanID)
		}
		return nil, err
	}
	if loan.Code != code {
		return nil, fmt.Errorf("%w: loan code mismatch", ErrNotFound)
	}
	s.logger.Info("pickup_token_scanned", "loan_id", loan.ID, "status", loan.Status)
	return loan, nil
}

func loanMessage(loan *models.Loan, kind, subject, body string) notify.Message {
	id := loan.ID
	return notify.Message{
		UserID:  loan.UserID,
		Type:    kind,
		LoanID:  &id,
		Subject: subject,
		Body:    body,
	}
}

func (s *loanService) deliver(ctx context.Context, msg notify.Message) {
	if s.sender == nil {
		return
	}
	if !s.sender.Deliver(ctx, msg) {
		s.logger.Warn("notification_delivery_failed",
			"user_id", msg.UserID,
			"type", msg.Type,
		)
	}
}
