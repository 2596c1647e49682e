package models

import "time"

type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanBorrowed LoanStatus = "borrowed"
	LoanReturned LoanStatus = "returned"
	LoanCanceled LoanStatus = "canceled"
	LoanOverdue  LoanStatus = "overdue"
	LoanLost     LoanStatus = "lost"
)

// Valid reports whether s is one of the known loan statuses.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanPending, LoanBorrowed, LoanReturned, LoanCanceled, LoanOverdue, LoanLost:
		return true
	}
	return false
}

// Terminal statuses never transition again.
func (s LoanStatus) Terminal() bool {
	return s == LoanReturned || s == LoanCanceled || s == LoanLost
}

// HoldsStock reports whether copies of the loan are out of the available pool.
func (s LoanStatus) HoldsStock() bool {
	return s == LoanPending || s == LoanBorrowed || s == LoanOverdue
}

type Loan struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"loan_id"`
	UserID     string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Code       string     `gorm:"size:64;not null;uniqueIndex" json:"code"`
	Status     LoanStatus `gorm:"size:16;not null;default:'pending';index" json:"status"`
	BorrowAt   *time.Time `json:"borrow_at,omitempty"`
	DueDate    *time.Time `gorm:"type:date;index" json:"due_date,omitempty"`
	ReturnAt   *time.Time `json:"return_at,omitempty"`
	RenewCount int        `gorm:"not null;default:0;check:chk_loan_renew_count,renew_count >= 0" json:"renew_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Associations
	Items []LoanItem `gorm:"foreignKey:LoanID" json:"items,omitempty"`
	User  *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// LoanItem is one line of the immutable manifest reserved at checkout.
type LoanItem struct {
	ID       int64 `gorm:"primaryKey;autoIncrement" json:"loan_item_id"`
	LoanID   int64 `gorm:"not null;index" json:"loan_id"`
	BookID   int64 `gorm:"not null;index" json:"book_id"`
	Quantity int   `gorm:"not null;check:chk_loan_item_quantity,quantity > 0" json:"quantity"`

	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (LoanItem) TableName() string {
	return "loan_items"
}
