package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is a received customer payment allocated against invoices
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ExternalID    *string         `gorm:"size:64;index" json:"external_id,omitempty"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	PostingDate   time.Time       `gorm:"type:date;not null" json:"posting_date"`
	ModeOfPayment string          `gorm:"size:100" json:"mode_of_payment,omitempty"`
	ReferenceNo   string          `gorm:"size:140" json:"reference_no,omitempty"`
	PaidAmount    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"paid_amount"`
	DoNotSync     bool            `gorm:"default:false" json:"do_not_sync"`
	DocStatus     enum.DocStatus  `gorm:"default:0;index" json:"doc_status"`
	SyncState     `gorm:"embedded"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relationships
	Customer   *Customer          `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	References []PaymentReference `gorm:"foreignKey:PaymentID" json:"references,omitempty"`
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// PaymentReference allocates part of a payment to an invoice
type PaymentReference struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	PaymentID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_id"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	AllocatedAmount decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"allocated_amount"`
}

// BeforeCreate generates a UUID before creating a new payment reference
func (r *PaymentReference) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PaymentReference model
func (PaymentReference) TableName() string {
	return "payment_references"
}
