package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	// GetByID loads the customer with its camp or organization and their negotiated prices
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	GetByExternalID(ctx context.Context, externalID string) (*entity.Customer, error)
}

// StateTaxRepository reads the per-state taxable flags
type StateTaxRepository interface {
	List(ctx context.Context) ([]entity.StateTaxInfo, error)
}
