package models

import "time"

// CartItem is a per-user staging row. It never reserves stock.
type CartItem struct {
	UserID    string    `gorm:"primaryKey;type:uuid" json:"user_id"`
	BookID    int64     `gorm:"primaryKey;autoIncrement:false" json:"book_id"`
	Quantity  int       `gorm:"not null;default:1;check:chk_cart_quantity,quantity > 0" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
