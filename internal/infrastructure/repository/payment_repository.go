package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	domainRepo "github.com/sangkips/qbo-connector/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return dbFrom(ctx, r.db).Omit("Customer").Create(payment).Error
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := dbFrom(ctx, r.db).Preload("References").First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetByExternalID(ctx context.Context, externalID string) (*entity.Payment, error) {
	var payment entity.Payment
	err := dbFrom(ctx, r.db).
		Where("external_id = ?", externalID).
		Order("created_at ASC").
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	return dbFrom(ctx, r.db).Omit(clause.Associations).Save(payment).Error
}

func (r *paymentRepository) ReassignInvoice(ctx context.Context, fromInvoiceID, toInvoiceID uuid.UUID) error {
	return dbFrom(ctx, r.db).
		Model(&entity.PaymentReference{}).
		Where("invoice_id = ?", fromInvoiceID).
		Update("invoice_id", toInvoiceID).Error
}
