package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          string          `gorm:"type:uuid;not null;index" json:"user_id"`
	RFQID           string          `gorm:"column:rfq_id;type:uuid;not null;index" json:"rfq_id"`
	OrderStatus     OrderStatus     `gorm:"type:varchar(32);not null;default:'pending_payment'" json:"order_status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(32);not null;default:'pending'" json:"payment_status"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	PaymentIntentID string          `gorm:"size:255" json:"payment_intent_id,omitempty"`
	PaidAt          *time.Time      `json:"paid_at"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`

	Profile *Profile    `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Items   []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT" json:"items,omitempty"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type OrderItem struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     string          `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   *string         `gorm:"type:uuid" json:"product_id"`
	ProductName string          `gorm:"size:255" json:"product_name"`
	ProductUnit string          `gorm:"size:32" json:"product_unit"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
