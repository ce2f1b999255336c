package repository

import (
	"context"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/repository"
	"gorm.io/gorm"
)

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new QuickBooks settings repository
func NewSettingsRepository(db *gorm.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

// Get retrieves the singleton settings row
func (r *settingsRepository) Get(ctx context.Context) (*entity.QuickBooksSettings, error) {
	var settings entity.QuickBooksSettings
	err := dbFrom(ctx, r.db).Where("id = ?", entity.QuickBooksSettingsID).First(&settings).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

// Save creates or replaces the singleton settings row
func (r *settingsRepository) Save(ctx context.Context, settings *entity.QuickBooksSettings) error {
	settings.ID = entity.QuickBooksSettingsID
	return dbFrom(ctx, r.db).Save(settings).Error
}
