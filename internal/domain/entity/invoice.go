package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is the local sales invoice. At most one active invoice holds a
// given ExternalID; the reconciliation service repairs violations.
type Invoice struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ExternalID        *string         `gorm:"size:64;index" json:"external_id,omitempty"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	SalesOrder        string          `gorm:"size:140;index" json:"sales_order,omitempty"`
	PostingDate       time.Time       `gorm:"type:date;not null" json:"posting_date"`
	Currency          string          `gorm:"size:3;not null;default:'USD'" json:"currency"`
	ExchangeRate      decimal.Decimal `gorm:"type:numeric(18,6);not null;default:1" json:"exchange_rate"`
	TotalQty          decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_qty"`
	NetTotal          decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"net_total"`
	TaxTotal          decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"tax_total"`
	DiscountPercent   decimal.Decimal `gorm:"type:numeric(9,4);not null;default:0" json:"discount_percent"`
	DiscountAmount    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"discount_amount"`
	GrandTotal        decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"grand_total"`
	OutstandingAmount decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"outstanding_amount"`
	IgnoreDiscount    bool            `gorm:"default:false" json:"ignore_discount"`
	DoNotSync         bool            `gorm:"default:false" json:"do_not_sync"`
	DocStatus         enum.DocStatus  `gorm:"default:0;index" json:"doc_status"`
	SyncState         `gorm:"embedded"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// Relationships
	Customer *Customer    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// IsActive reports whether the invoice still counts toward the
// one-active-invoice-per-external-id rule.
func (i *Invoice) IsActive() bool {
	return i.DocStatus != enum.DocStatusCancelled
}

// InvoiceItem is one sales line on an invoice
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Idx         int             `gorm:"not null;default:0" json:"idx"`
	ItemCode    string          `gorm:"size:140;not null" json:"item_code"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Qty         decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"qty"`
	Rate        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"rate"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	SalesOrder  string          `gorm:"size:140" json:"sales_order,omitempty"`
}

// BeforeCreate generates a UUID before creating a new invoice item
func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceItem model
func (InvoiceItem) TableName() string {
	return "invoice_items"
}
