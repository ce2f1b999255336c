package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	domainRepo "github.com/sangkips/qbo-connector/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	return dbFrom(ctx, r.db).Omit("Customer").Create(invoice).Error
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := dbFrom(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("idx ASC")
		}).
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

func (r *invoiceRepository) ListActiveByExternalID(ctx context.Context, externalID string) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := dbFrom(ctx, r.db).
		Where("external_id = ? AND doc_status <> ?", externalID, enum.DocStatusCancelled).
		Order("created_at ASC, id ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	return dbFrom(ctx, r.db).Omit(clause.Associations).Save(invoice).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := dbFrom(ctx, r.db)
	if err := db.Where("invoice_id = ?", id).Delete(&entity.InvoiceItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&entity.Invoice{}, "id = ?", id).Error
}
