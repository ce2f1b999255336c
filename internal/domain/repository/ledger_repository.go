package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
)

// LedgerRepository defines the interface for ledger postings
type LedgerRepository interface {
	CreateEntries(ctx context.Context, entries []entity.LedgerEntry) error
	// CancelByVoucher flags every entry of the voucher as cancelled
	CancelByVoucher(ctx context.Context, voucherType string, voucherID uuid.UUID) error
	// DeleteByVoucher removes every entry of the voucher and every payment
	// ledger entry recorded against it
	DeleteByVoucher(ctx context.Context, voucherType string, voucherID uuid.UUID) error
	// ReassignAgainst points payment ledger entries recorded against one
	// voucher at another
	ReassignAgainst(ctx context.Context, fromVoucherID, toVoucherID uuid.UUID) error
}
