package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone       *string    `gorm:"uniqueIndex;size:32" json:"phone,omitempty"`
	FirstName   string     `gorm:"size:191" json:"first_name"`
	LastName    string     `gorm:"size:191" json:"last_name"`
	Password    string     `gorm:"column:password_hash;not null" json:"-"` // Not show in JSON
	Role        string     `gorm:"default:'user';not null" json:"role"`    // "user" or "admin"
	IsActivated bool       `gorm:"default:false" json:"is_activated"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

// DisplayName is what notifications greet the user with.
func (user *User) DisplayName() string {
	name := user.FirstName
	if user.LastName != "" {
		if name != "" {
			name += " "
		}
		name += user.LastName
	}
	if name == "" {
		return user.Email
	}
	return name
}

func (User) TableName() string {
	return "users"
}
