package models

import "time"

const InvoiceTypeOverdue = "overdue"

type InvoiceStatus string

const (
	InvoiceUnpaid InvoiceStatus = "unpaid"
	InvoicePaid   InvoiceStatus = "paid"
	InvoiceVoid   InvoiceStatus = "void"
)

func (s InvoiceStatus) Valid() bool {
	return s == InvoiceUnpaid || s == InvoicePaid || s == InvoiceVoid
}

// Invoice is derived from loan state by the overdue sweep. At most one
// invoice of each type exists per loan.
type Invoice struct {
	ID          int64         `gorm:"primaryKey;autoIncrement" json:"invoice_id"`
	UserID      string        `gorm:"type:uuid;not null;index" json:"user_id"`
	LoanID      int64         `gorm:"not null;uniqueIndex:idx_invoices_loan_type" json:"loan_id"`
	Type        string        `gorm:"size:16;not null;default:'overdue';uniqueIndex:idx_invoices_loan_type" json:"type"`
	Status      InvoiceStatus `gorm:"size:16;not null;default:'unpaid';index" json:"status"`
	DaysOverdue int           `gorm:"not null;default:0" json:"days_overdue"`
	AmountVND   int64         `gorm:"not null;default:0" json:"amount_vnd"`
	IssuedAt    *time.Time    `gorm:"index" json:"issued_at,omitempty"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
	Note        string        `gorm:"type:text" json:"note,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Loan *Loan `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
}

func (Invoice) TableName() string {
	return "invoices"
}
