package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Voucher types and ledgers written by posting
const (
	VoucherTypeInvoice = "invoice"
	VoucherTypePayment = "payment"

	LedgerGeneral = "general"
	LedgerPayment = "payment"
)

// LedgerEntry is one posting line. The store does not cascade these on
// voucher deletion; callers remove them explicitly.
type LedgerEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	VoucherType string          `gorm:"size:20;not null;index:idx_voucher" json:"voucher_type"`
	VoucherID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_voucher" json:"voucher_id"`
	Ledger      string          `gorm:"size:20;not null" json:"ledger"`
	Account     string          `gorm:"size:140;not null" json:"account"`
	PartyID     *uuid.UUID      `gorm:"type:uuid" json:"party_id,omitempty"`
	AgainstID   *uuid.UUID      `gorm:"type:uuid;index" json:"against_id,omitempty"`
	Debit       decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"debit"`
	Credit      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"credit"`
	IsCancelled bool            `gorm:"default:false" json:"is_cancelled"`
	PostingDate time.Time       `gorm:"type:date;not null" json:"posting_date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new ledger entry
func (l *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the LedgerEntry model
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
