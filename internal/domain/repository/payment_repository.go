package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
)

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create inserts the payment with its references
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	GetByExternalID(ctx context.Context, externalID string) (*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error
	// ReassignInvoice moves every allocation against one invoice to another
	ReassignInvoice(ctx context.Context, fromInvoiceID, toInvoiceID uuid.UUID) error
}
