package models

import "time"

const (
	TxTypeOverdueFee = "overdue_fee"
	TxTypeDamageFee  = "damage_fee"
	TxTypeLostFee    = "lost_fee"
	TxTypePayment    = "payment"
)

const (
	TxPending   = "pending"
	TxSucceeded = "succeeded"
	TxFailed    = "failed"
)

var PaymentProviders = []string{"cash", "momo", "zalopay", "vnpay", "bank_transfer"}

// ValidProvider reports whether p is an accepted payment provider.
func ValidProvider(p string) bool {
	for _, v := range PaymentProviders {
		if v == p {
			return true
		}
	}
	return false
}

// Transaction is an append-only ledger row. Only Status may change after
// creation, and only from pending.
type Transaction struct {
	ID         int64      `gorm:"column:txn_id;primaryKey;autoIncrement" json:"txn_id"`
	UserID     string     `gorm:"type:uuid;not null;index" json:"user_id"`
	LoanID     int64      `gorm:"not null;index" json:"loan_id"`
	InvoiceID  *int64     `gorm:"index" json:"invoice_id,omitempty"`
	LoanItemID *int64     `json:"loan_item_id,omitempty"`
	Type       string     `gorm:"size:16;not null" json:"type"`
	Status     string     `gorm:"size:16;not null;default:'pending'" json:"status"`
	Currency   string     `gorm:"size:3;not null;default:'VND'" json:"currency"`
	AmountVND  int64      `gorm:"not null" json:"amount_vnd"`
	Provider   string     `gorm:"size:16;not null;default:'cash';index" json:"provider"`
	TxRef      string     `gorm:"size:191" json:"tx_ref,omitempty"`
	TxMeta     string     `gorm:"type:text" json:"tx_meta,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Invoice *Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}
