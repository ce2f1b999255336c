package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	domainRepo "github.com/sangkips/qbo-connector/internal/domain/repository"
	"gorm.io/gorm"
)

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) domainRepo.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateEntries(ctx context.Context, entries []entity.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return dbFrom(ctx, r.db).Create(&entries).Error
}

func (r *ledgerRepository) CancelByVoucher(ctx context.Context, voucherType string, voucherID uuid.UUID) error {
	return dbFrom(ctx, r.db).
		Model(&entity.LedgerEntry{}).
		Where("voucher_type = ? AND voucher_id = ?", voucherType, voucherID).
		Update("is_cancelled", true).Error
}

func (r *ledgerRepository) DeleteByVoucher(ctx context.Context, voucherType string, voucherID uuid.UUID) error {
	db := dbFrom(ctx, r.db)
	if err := db.Where("voucher_type = ? AND voucher_id = ?", voucherType, voucherID).
		Delete(&entity.LedgerEntry{}).Error; err != nil {
		return err
	}
	return db.Where("ledger = ? AND against_id = ?", entity.LedgerPayment, voucherID).
		Delete(&entity.LedgerEntry{}).Error
}

func (r *ledgerRepository) ReassignAgainst(ctx context.Context, fromVoucherID, toVoucherID uuid.UUID) error {
	return dbFrom(ctx, r.db).
		Model(&entity.LedgerEntry{}).
		Where("ledger = ? AND against_id = ?", entity.LedgerPayment, fromVoucherID).
		Update("against_id", toVoucherID).Error
}
