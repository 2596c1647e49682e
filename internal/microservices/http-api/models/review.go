package models

import "time"

const (
	ReviewVisible = "visible"
	ReviewHidden  = "hidden"
	ReviewPending = "pending"
)

type Review struct {
	ID        int64     `json:"review_id" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_book"`
	BookID    int64     `json:"book_id" gorm:"not null;index;uniqueIndex:idx_reviews_user_book"`
	Rating    int       `json:"rating" gorm:"not null;check:chk_review_rating,rating >= 1 AND rating <= 5"`
	Comment   string    `json:"comment,omitempty" gorm:"type:text"`
	Status    string    `json:"status" gorm:"size:16;not null;default:'visible'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Associations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	Book *Book `json:"book,omitempty" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE;"`
}

func (Review) TableName() string {
	return "reviews"
}
