package repository

import (
	"context"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
)

// SettingsRepository stores the QuickBooks connection
type SettingsRepository interface {
	// Get returns nil when QuickBooks has never been connected
	Get(ctx context.Context) (*entity.QuickBooksSettings, error)
	Save(ctx context.Context, settings *entity.QuickBooksSettings) error
}
