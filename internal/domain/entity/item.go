package entity

import (
	"time"

	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// Item is a sellable stock item keyed by its ERP item code
type Item struct {
	Code          string           `gorm:"size:140;primaryKey" json:"code"`
	Name          string           `gorm:"size:255" json:"name"`
	ExternalID    *string          `gorm:"size:64;uniqueIndex" json:"external_id,omitempty"`
	ValuationRate decimal.Decimal  `gorm:"type:numeric(18,2);not null;default:0" json:"valuation_rate"`
	PriceListRate decimal.Decimal  `gorm:"type:numeric(18,2);not null;default:0" json:"price_list_rate"`
	TaxCategory   enum.TaxCategory `gorm:"size:20;not null;default:'Taxable'" json:"tax_category"`
	TaxTemplate   string           `gorm:"size:140" json:"tax_template,omitempty"`
	SyncState     `gorm:"embedded"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the table name for the Item model
func (Item) TableName() string {
	return "items"
}
