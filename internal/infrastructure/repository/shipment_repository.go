package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	domainRepo "github.com/sangkips/qbo-connector/internal/domain/repository"
	"gorm.io/gorm"
)

type shipmentTrackerRepository struct {
	db *gorm.DB
}

// NewShipmentTrackerRepository creates a new shipment tracker repository
func NewShipmentTrackerRepository(db *gorm.DB) domainRepo.ShipmentTrackerRepository {
	return &shipmentTrackerRepository{db: db}
}

func (r *shipmentTrackerRepository) GetByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*entity.ShipmentTracker, error) {
	var tracker entity.ShipmentTracker
	err := dbFrom(ctx, r.db).First(&tracker, "invoice_id = ?", invoiceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &tracker, err
}

func (r *shipmentTrackerRepository) FindUninvoicedBySalesOrder(ctx context.Context, salesOrder string) (*entity.ShipmentTracker, error) {
	var tracker entity.ShipmentTracker
	err := dbFrom(ctx, r.db).
		Where("sales_order = ? AND invoice_id IS NULL", salesOrder).
		Order("created_at ASC").
		First(&tracker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &tracker, err
}

func (r *shipmentTrackerRepository) Update(ctx context.Context, tracker *entity.ShipmentTracker) error {
	return dbFrom(ctx, r.db).Save(tracker).Error
}

func (r *shipmentTrackerRepository) DetachInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	return dbFrom(ctx, r.db).
		Model(&entity.ShipmentTracker{}).
		Where("invoice_id = ?", invoiceID).
		Update("invoice_id", nil).Error
}
