package repository

import (
	"context"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
)

// ItemRepository defines the interface for item data operations
type ItemRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.Item, error)
	GetByExternalID(ctx context.Context, externalID string) (*entity.Item, error)
	// ListByCodes returns the items found, keyed by code
	ListByCodes(ctx context.Context, codes []string) (map[string]entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
}
