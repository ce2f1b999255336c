package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
)

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	// Create inserts the invoice with its items
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	// ListActiveByExternalID returns non-cancelled invoices holding externalID, oldest first
	ListActiveByExternalID(ctx context.Context, externalID string) ([]entity.Invoice, error)
	// Update saves header fields only; items are left untouched
	Update(ctx context.Context, invoice *entity.Invoice) error
	// Delete hard-deletes the invoice and its items
	Delete(ctx context.Context, id uuid.UUID) error
}
