package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Category        string          `gorm:"size:100;index" json:"category"`
	CountryOfOrigin string          `gorm:"size:100" json:"country_of_origin"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	Unit            string          `gorm:"size:32" json:"unit"`
	Stock           int             `gorm:"not null;default:0" json:"stock"`
	Availability    bool            `gorm:"not null;default:true" json:"availability"`
	ImageURL        string          `gorm:"size:1024" json:"image_url"`
	Description     string          `gorm:"type:text" json:"description"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
