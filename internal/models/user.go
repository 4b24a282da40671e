package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account holds login credentials and the metadata copied into sessions.
type Account struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"not null"`
	FullName     string `gorm:"size:255"`
	Company      string `gorm:"size:255"`
	AvatarURL    string `gorm:"size:1024"`
	CreatedAt    time.Time
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Profile is the application-level user record, keyed by Account.ID.
type Profile struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	AvatarURL string    `gorm:"size:1024" json:"avatar_url"`
	Role      UserRole  `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}
