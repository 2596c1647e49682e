package models

import "time"

type Book struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title" gorm:"size:512;not null;index"`
	Author    string    `json:"author" gorm:"size:512"`
	CoverURL  string    `json:"cover_url,omitempty" gorm:"size:1024"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// association
	Inventory *Inventory `json:"inventory,omitempty" gorm:"foreignKey:BookID"`
	Genres    []Genre    `json:"genres,omitempty" gorm:"many2many:book_genres;constraint:OnDelete:CASCADE;"`
}

func (Book) TableName() string {
	return "books"
}

// Inventory is the single source of truth for how many copies of a book are free.
// Invariant: 0 <= Available <= Total.
type Inventory struct {
	BookID    int64     `json:"book_id" gorm:"primaryKey;autoIncrement:false"`
	Total     int       `json:"total" gorm:"not null;default:0;check:chk_inventory_total,total >= 0"`
	Available int       `json:"available" gorm:"not null;default:0;check:chk_inventory_available,available >= 0 AND available <= total"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Inventory) TableName() string {
	return "inventory"
}
