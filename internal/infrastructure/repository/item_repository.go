package repository

import (
	"context"
	"errors"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	domainRepo "github.com/sangkips/qbo-connector/internal/domain/repository"
	"gorm.io/gorm"
)

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) domainRepo.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	var item entity.Item
	err := dbFrom(ctx, r.db).First(&item, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *itemRepository) GetByExternalID(ctx context.Context, externalID string) (*entity.Item, error) {
	var item entity.Item
	err := dbFrom(ctx, r.db).First(&item, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *itemRepository) ListByCodes(ctx context.Context, codes []string) (map[string]entity.Item, error) {
	result := make(map[string]entity.Item, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	var items []entity.Item
	if err := dbFrom(ctx, r.db).Where("code IN ?", codes).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		result[item.Code] = item
	}
	return result, nil
}

func (r *itemRepository) Update(ctx context.Context, item *entity.Item) error {
	return dbFrom(ctx, r.db).Save(item).Error
}
