package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
)

// ShipmentTrackerRepository defines the interface for shipment tracker operations
type ShipmentTrackerRepository interface {
	GetByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*entity.ShipmentTracker, error)
	// FindUninvoicedBySalesOrder returns the oldest tracker for salesOrder with no invoice linked
	FindUninvoicedBySalesOrder(ctx context.Context, salesOrder string) (*entity.ShipmentTracker, error)
	Update(ctx context.Context, tracker *entity.ShipmentTracker) error
	// DetachInvoice clears the invoice reference on any tracker pointing at invoiceID
	DetachInvoice(ctx context.Context, invoiceID uuid.UUID) error
}
