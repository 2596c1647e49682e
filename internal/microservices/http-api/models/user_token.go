package models

import "time"

const (
	UserTokenActivation = "activation"
	UserTokenReset      = "reset"
)

// UserToken is a single-use account link. Only the SHA-256 of the raw token
// is stored.
type UserToken struct {
	TokenHash  string     `gorm:"primaryKey;size:64" json:"-"`
	UserID     string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Type       string     `gorm:"size:16;not null" json:"type"`
	Channel    string     `gorm:"size:16" json:"channel"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (UserToken) TableName() string {
	return "user_tokens"
}
