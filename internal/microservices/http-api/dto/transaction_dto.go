package dto

import (
	"time"

	"libraryhub/internal/microservices/http-api/models"
)

// SettleRequest for POST /admin/transactions/:id/settle
type SettleRequest struct {
	Status string `json:"status" binding:"required,oneof=succeeded failed"`
}

type TransactionResponse struct {
	TxnID      int64      `json:"txn_id"`
	UserID     string     `json:"user_id"`
	LoanID     int64      `json:"loan_id"`
	InvoiceID  *int64     `json:"invoice_id,omitempty"`
	LoanItemID *int64     `json:"loan_item_id,omitempty"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	Currency   string     `json:"currency"`
	AmountVND  int64      `json:"amount_vnd"`
	Provider   string     `json:"provider"`
	TxRef      string     `json:"tx_ref,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func FromModelToTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		TxnID:      t.ID,
		UserID:     t.UserID,
		LoanID:     t.LoanID,
		InvoiceID:  t.InvoiceID,
		LoanItemID: t.LoanItemID,
		Type:       t.Type,
		Status:     t.Status,
		Currency:   t.Currency,
		AmountVND:  t.AmountVND,
		Provider:   t.Provider,
		TxRef:      t.TxRef,
		PaidAt:     t.PaidAt,
		CreatedAt:  t.CreatedAt,
	}
}
