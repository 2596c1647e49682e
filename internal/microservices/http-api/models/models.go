// Package models holds the gorm models of the library schema.
package models

// All lists every model for AutoMigrate, parents first.
func All() []any {
	return []any{
		&User{}, &RefreshToken{}, &UserToken{},
		&Genre{}, &Book{}, &Inventory{},
		&CartItem{},
		&Loan{}, &LoanItem{},
		&Invoice{}, &Transaction{},
		&Review{}, &Notification{},
	}
}
