package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
)

// TransactionService exposes the append-only payment ledger.
type TransactionService interface {
	List(ctx context.Context, actor Actor, filter dto.TransactionFilter) ([]models.Transaction, int64, error)
	// Settle moves a pending transaction to succeeded or failed. A succeeded
	// payment also pays the invoice it was opened for, in the same commit.
	Settle(ctx context.Context, txnID int64, status string) (*models.Transaction, error)
}

type transactionService struct {
	tx       repository.Transactor
	txns     repository.TransactionRepository
	invoices repository.InvoiceRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewTransactionService(
	tx repository.Transactor,
	txns repository.TransactionRepository,
	invoices repository.InvoiceRepository,
	logger *slog.Logger,
) TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &transactionService{tx: tx, txns: txns, invoices: invoices, logger: logger, now: time.Now}
}

func (s *transactionService) List(ctx context.Context, actor Actor, filter dto.TransactionFilter) ([]models.Transaction, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, invalid("%v", err)
	}
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	return s.txns.List(ctx, filter)
}

func (s *transactionService) Settle(ctx context.Context, txnID int64, status string) (*models.Transaction, error) {
	if status != models.TxSucceeded && status != models.TxFailed {
		return nil, ErrInvalidTransactionMove
	}

	var txn *models.Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		txn, err = s.txns.GetForUpdate(ctx, txnID)
		if err != nil {
			if repository.IsNotFound(err) {
				return fmt.Errorf("%w: transaction %d", ErrNotFound, txnID)
			}
			return err
		}
		if txn.Status != models.TxPending {
			return fmt.Errorf("%w: transaction is %s", ErrTransactionNotPending, txn.Status)
		}

		now := s.now().UTC()
		fields := map[string]any{}
		if status == models.TxSucceeded {
			fields["paid_at"] = now
			txn.PaidAt = &now
		}
		updated, err := s.txns.SetStatusFromPending(ctx, txnID, status, fields)
		if err != nil {
			return err
		}
		if !updated {
			return ErrTransactionNotPending
		}
		txn.Status = status

		if status == models.TxSucceeded && txn.Type == models.TxTypePayment && txn.InvoiceID != nil {
			return s.payInvoice(ctx, *txn.InvoiceID, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction_settled", "txn_id", txn.ID, "status", txn.Status)
	return txn, nil
}

// payInvoice runs inside Settle's transaction. An invoice that was paid or
// voided in the meantime rolls the settlement back.
func (s *transactionService) payInvoice(ctx context.Context, invoiceID int64, now time.Time) error {
	inv, err := s.invoices.GetForUpdate(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("load invoice %d: %w", invoiceID, err)
	}
	switch inv.Status {
	case models.InvoicePaid:
		return ErrInvoiceAlreadyPaid
	case models.InvoiceVoid:
		return ErrInvoiceVoid
	}
	if err := s.invoices.UpdateFields(ctx, inv.ID, map[string]any{
		"status":  models.InvoicePaid,
		"paid_at": now,
	}); err != nil {
		return err
	}
	s.logger.Info("invoice_paid", "invoice_id", inv.ID, "loan_id", inv.LoanID, "amount_vnd", inv.AmountVND)
	return nil
}
