package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RFQ struct {
	ID     string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Status RFQStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Notes  string    `gorm:"type:text" json:"notes"`

	QuotedPrice       decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"quoted_price"`
	ShippingCost      decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"shipping_cost"`
	AdminNotes        string              `gorm:"type:text" json:"admin_notes"`
	QuoteRespondedBy  *string             `gorm:"type:uuid" json:"quote_responded_by"`
	QuotedAt          *time.Time          `json:"quoted_at"`
	QuoteValidUntil   *time.Time          `json:"quote_valid_until"`
	EstimatedDelivery *time.Time          `json:"estimated_delivery"`

	CreatedAt time.Time `json:"created_at"`

	Profile *Profile  `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Items   []RFQItem `gorm:"foreignKey:RFQID;constraint:OnDelete:RESTRICT" json:"items,omitempty"`
}

func (RFQ) TableName() string { return "rfqs" }

func (r *RFQ) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Total is the quoted price plus shipping; zero until quoted.
func (r RFQ) Total() decimal.Decimal {
	total := decimal.Zero
	if r.QuotedPrice.Valid {
		total = total.Add(r.QuotedPrice.Decimal)
	}
	if r.ShippingCost.Valid {
		total = total.Add(r.ShippingCost.Decimal)
	}
	return total
}

type RFQItem struct {
	ID                 string          `gorm:"type:uuid;primaryKey" json:"id"`
	RFQID              string          `gorm:"column:rfq_id;type:uuid;not null;index" json:"rfq_id"`
	ProductID          *string         `gorm:"type:uuid" json:"product_id"`
	ProductName        string          `gorm:"size:255" json:"product_name"`
	ProductUnit        string          `gorm:"size:32" json:"product_unit"`
	Quantity           int             `gorm:"not null" json:"quantity"`
	UnitPriceAtRequest decimal.Decimal `gorm:"type:numeric(12,2)" json:"unit_price_at_request"`
}

func (RFQItem) TableName() string { return "rfq_items" }

func (i *RFQItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
