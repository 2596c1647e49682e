package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/notify"

	jsoniter "github.com/json-iterator/go"
)

const (
	defaultProvider = "cash"
	currencyVND     = "VND"
)

type InvoiceService interface {
	// UpsertOverdue creates the overdue invoice for loan or refreshes it while
	// unpaid. Runs in the caller's transaction, under the caller's loan lock.
	UpsertOverdue(ctx context.Context, loan *models.Loan, today time.Time) (inv *models.Invoice, created bool, err error)
	// MarkPaid settles an unpaid invoice and appends the matching payment
	// transaction in the same commit.
	MarkPaid(ctx context.Context, invoiceID int64, req dto.MarkPaidRequest) (*models.Invoice, *models.Transaction, error)
	// StartPayment opens a pending online payment for an unpaid invoice. The
	// invoice is paid when the transaction is settled as succeeded.
	StartPayment(ctx context.Context, actor Actor, invoiceID int64, req dto.StartPaymentRequest) (*models.Transaction, error)
	Void(ctx context.Context, invoiceID int64, note string) (*models.Invoice, error)
	Get(ctx context.Context, actor Actor, invoiceID int64) (*models.Invoice, error)
	List(ctx context.Context, actor Actor, filter dto.InvoiceFilter) ([]models.Invoice, int64, error)
}

type invoiceService struct {
	tx       repository.Transactor
	invoices repository.InvoiceRepository
	txns     repository.TransactionRepository
	fees     FeePolicy
	sender   notify.Sender
	logger   *slog.Logger
	now      func() time.Time
}

func NewInvoiceService(
	tx repository.Transactor,
	invoices repository.InvoiceRepository,
	txns repository.TransactionRepository,
	fees FeePolicy,
	sender notify.Sender,
	logger *slog.Logger,
) InvoiceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceService{
		tx:       tx,
		invoices: invoices,
		txns:     txns,
		fees:     fees,
		sender:   sender,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *invoiceService) UpsertOverdue(ctx context.Context, loan *models.Loan, today time.Time) (*models.Invoice, bool, error) {
	if loan.DueDate == nil {
		return nil, false, fmt.Errorf("loan %d has no due date", loan.ID)
	}
	days := s.fees.DaysOverdue(*loan.DueDate, today)
	amount := s.fees.Amount(days)
	issuedAt := StartOfDay(*loan.DueDate)

	inv := &models.Invoice{
		UserID:      loan.UserID,
		LoanID:      loan.ID,
		Type:        models.InvoiceTypeOverdue,
		Status:      models.InvoiceUnpaid,
		DaysOverdue: days,
		AmountVND:   amount,
		IssuedAt:    &issuedAt,
	}
	created, err := s.invoices.CreateIfAbsent(ctx, inv)
	if err != nil {
		return nil, false, err
	}
	if created {
		return inv, true, nil
	}

	existing, err := s.invoices.GetByLoanAndType(ctx, loan.ID, models.InvoiceTypeOverdue)
	if err != nil {
		return nil, false, fmt.Errorf("reload overdue invoice for loan %d: %w", loan.ID, err)
	}
	if existing.Status != models.InvoiceUnpaid {
		return existing, false, nil
	}

	// monotonic: a refresh never lowers what is owed
	newDays := max(existing.DaysOverdue, days)
	newAmount := max(existing.AmountVND, amount)
	if newDays == existing.DaysOverdue && newAmount == existing.AmountVND {
		return existing, false, nil
	}
	if err := s.invoices.UpdateFields(ctx, existing.ID, map[string]any{
		"days_overdue": newDays,
		"amount_vnd":   newAmount,
	}); err != nil {
		return nil, false, err
	}
	existing.DaysOverdue = newDays
	existing.AmountVND = newAmount
	return existing, false, nil
}

func (s *invoiceService) MarkPaid(ctx context.Context, invoiceID int64, req dto.MarkPaidRequest) (*models.Invoice, *models.Transaction, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		provider = defaultProvider
	}
	if !models.ValidProvider(provider) {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidProvider, req.Provider)
	}

	var inv *models.Invoice
	var txn *models.Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			if repository.IsNotFound(err) {
				return fmt.Errorf("%w: invoice %d", ErrNotFound, invoiceID)
			}
			return err
		}
		switch inv.Status {
		case models.InvoicePaid:
			return ErrInvoiceAlreadyPaid
		case models.InvoiceVoid:
			return ErrInvoiceVoid
		}

		now := s.now().UTC()
		ref := strings.TrimSpace(req.TxRef)
		if ref == "" {
			ref = fmt.Sprintf("%s-%d", strings.ToUpper(provider), now.UnixMilli())
		}

		fields := map[string]any{
			"status":  models.InvoicePaid,
			"paid_at": now,
		}
		if req.Note != "" {
			fields["note"] = req.Note
		}
		if err := s.invoices.UpdateFields(ctx, inv.ID, fields); err != nil {
			return err
		}
		inv.Status = models.InvoicePaid
		inv.PaidAt = &now
		if req.Note != "" {
			inv.Note = req.Note
		}

		meta, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(map[string]any{
			"source":       "invoice",
			"invoice_type": inv.Type,
			"days_overdue": inv.DaysOverdue,
			"note":         req.Note,
		})
		if err != nil {
			return fmt.Errorf("encode tx meta: %w", err)
		}

		invID := inv.ID
		txn = &models.Transaction{
			UserID:    inv.UserID,
			LoanID:    inv.LoanID,
			InvoiceID: &invID,
			Type:      models.TxTypePayment,
			Status:    models.TxSucceeded,
			Currency:  currencyVND,
			AmountVND: inv.AmountVND,
			Provider:  provider,
			TxRef:     ref,
			TxMeta:    meta,
			PaidAt:    &now,
		}
		return s.txns.Create(ctx, txn)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("invoice_paid",
		"invoice_id", inv.ID,
		"loan_id", inv.LoanID,
		"amount_vnd", inv.AmountVND,
		"provider", provider,
		"txn_id", txn.ID,
	)
	s.deliver(ctx, notify.Message{
		UserID:  inv.UserID,
		Type:    models.NotifyInvoicePaid,
		LoanID:  &inv.LoanID,
		Subject: "Payment received",
		Body:    fmt.Sprintf("We received %d VND for invoice #%d. Thank you.", inv.AmountVND, inv.ID),
	})
	return inv, txn, nil
}

func (s *invoiceService) StartPayment(ctx context.Context, actor Actor, invoiceID int64, req dto.StartPaymentRequest) (*models.Transaction, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if !models.ValidProvider(provider) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProvider, req.Provider)
	}
	if provider == defaultProvider {
		return nil, fmt.Errorf("%w: cash is collected at the desk", ErrInvalidProvider)
	}

	var txn *models.Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			if repository.IsNotFound(err) {
				return fmt.Errorf("%w: invoice %d", ErrNotFound, invoiceID)
			}
			return err
		}
		if !actor.CanAccess(inv.UserID) {
			return ErrForbidden
		}
		switch inv.Status {
		case models.InvoicePaid:
			return ErrInvoiceAlreadyPaid
		case models.InvoiceVoid:
			return ErrInvoiceVoid
		}

		now := s.now().UTC()
		meta, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(map[string]any{
			"source":       "online",
			"invoice_type": inv.Type,
			"started_by":   actor.UserID,
		})
		if err != nil {
			return fmt.Errorf("encode tx meta: %w", err)
		}
		invID := inv.ID
		txn = &models.Transaction{
			UserID:    inv.UserID,
			LoanID:    inv.LoanID,
			InvoiceID: &invID,
			Type:      models.TxTypePayment,
			Status:    models.TxPending,
			Currency:  currencyVND,
			AmountVND: inv.AmountVND,
			Provider:  provider,
			TxRef:     fmt.Sprintf("%s-%d-%d", strings.ToUpper(provider), inv.ID, now.UnixMilli()),
			TxMeta:    meta,
		}
		return s.txns.Create(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment_started",
		"invoice_id", invoiceID,
		"txn_id", txn.ID,
		"provider", provider,
		"amount_vnd", txn.AmountVND,
	)
	return txn, nil
}

func (s *invoiceService) Void(ctx context.Context, invoiceID int64, note string) (*models.Invoice, error) {
	var inv *models.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			if repository.IsNotFound(err) {
				return fmt.Errorf("%w: invoice %d", ErrNotFound, invoiceID)
			}
			return err
		}
		if inv.Status != models.InvoiceUnpaid {
			return fmt.Errorf("%w: invoice is %s", ErrInvoiceNotVoidable, inv.Status)
		}
		fields := map[string]any{"status": models.InvoiceVoid}
		if note != "" {
			fields["note"] = note
			inv.Note = note
		}
		if err := s.invoices.UpdateFields(ctx, inv.ID, fields); err != nil {
			return err
		}
		inv.Status = models.InvoiceVoid
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("invoice_voided", "invoice_id", inv.ID, "loan_id", inv.LoanID)
	return inv, nil
}

func (s *invoiceService) Get(ctx context.Context, actor Actor, invoiceID int64) (*models.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: invoice %d", ErrNotFound, invoiceID)
		}
		return nil, err
	}
	if !actor.CanAccess(inv.UserID) {
		return nil, ErrForbidden
	}
	return inv, nil
}

func (s *invoiceService) List(ctx context.Context, actor Actor, filter dto.InvoiceFilter) ([]models.Invoice, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, invalid("%v", err)
	}
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	return s.invoices.List(ctx, filter)
}

func (s *invoiceService) deliver(ctx context.Context, msg notify.Message) {
	if s.sender == nil {
		return
	}
	if !s.sender.Deliver(ctx, msg) {
		s.logger.Warn("notification_delivery_failed", "user_id", msg.UserID, "type", msg.Type)
	}
}
