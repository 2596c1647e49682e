package models

import "time"

const (
	NotifyLoanReserved = "LOAN_RESERVED"
	NotifyLoanBorrowed = "LOAN_BORROWED"
	NotifyLoanCanceled = "LOAN_CANCELED"
	NotifyLoanReturned = "LOAN_RETURNED"
	NotifyLoanOverdue  = "LOAN_OVERDUE"
	NotifyDueSoon      = "DUE_SOON"
	NotifyInvoicePaid  = "INVOICE_PAID"

	NotifyAccountActivation = "ACCOUNT_ACTIVATION"
	NotifyPasswordReset     = "PASSWORD_RESET"
)

type Notification struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string    `gorm:"not null" json:"type"`
	LoanID    *int64    `json:"loan_id,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
