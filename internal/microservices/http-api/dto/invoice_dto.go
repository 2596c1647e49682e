package dto

import (
	"time"

	"libraryhub/internal/microservices/http-api/models"
)

// MarkPaidRequest for POST /invoices/:id/mark-paid. All fields optional.
type MarkPaidRequest struct {
	Provider string `json:"provider"`
	TxRef    string `json:"tx_ref" binding:"max=191"`
	Note     string `json:"note"`
}

// StartPaymentRequest for POST /invoices/:id/pay
type StartPaymentRequest struct {
	Provider string `json:"provider" binding:"required"`
}

// VoidRequest for POST /invoices/:id/void
type VoidRequest struct {
	Note string `json:"note"`
}

type InvoiceResponse struct {
	InvoiceID   int64                `json:"invoice_id"`
	UserID      string               `json:"user_id"`
	LoanID      int64                `json:"loan_id"`
	Type        string               `json:"type"`
	Status      models.InvoiceStatus `json:"status"`
	DaysOverdue int                  `json:"days_overdue"`
	AmountVND   int64                `json:"amount_vnd"`
	IssuedAt    *time.Time           `json:"issued_at,omitempty"`
	PaidAt      *time.Time           `json:"paid_at,omitempty"`
	Note        string               `json:"note,omitempty"`
}

func FromModelToInvoiceResponse(inv *models.Invoice) InvoiceResponse {
	return InvoiceResponse{
		InvoiceID:   inv.ID,
		UserID:      inv.UserID,
		LoanID:      inv.LoanID,
		Type:        inv.Type,
		Status:      inv.Status,
		DaysOverdue: inv.DaysOverdue,
		AmountVND:   inv.AmountVND,
		IssuedAt:    inv.IssuedAt,
		PaidAt:      inv.PaidAt,
		Note:        inv.Note,
	}
}

// MarkPaidResponse carries the invoice together with its ledger entry.
type MarkPaidResponse struct {
	Invoice     InvoiceResponse     `json:"invoice"`
	Transaction TransactionResponse `json:"transaction"`
}
