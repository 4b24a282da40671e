package models

import "time"

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	UserID string `gorm:"type:uuid;index" json:"user_id"`

	Entity   string `gorm:"size:50;not null" json:"entity"` // "product", "rfq", "order", "profile"
	EntityID string `gorm:"size:64" json:"entity_id"`
	Action   string `gorm:"size:50;not null" json:"action"` // "create", "quote", "role_change" ...
	Details  string `gorm:"type:text" json:"details"`
}
