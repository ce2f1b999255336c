package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	domainRepo "github.com/sangkips/qbo-connector/internal/domain/repository"
	"gorm.io/gorm"
)

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) domainRepo.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	var customer entity.Customer
	err := dbFrom(ctx, r.db).
		Preload("Camp.NegotiatedPrices").
		Preload("OtherOrganization.NegotiatedPrices").
		First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (r *customerRepository) GetByExternalID(ctx context.Context, externalID string) (*entity.Customer, error) {
	var customer entity.Customer
	err := dbFrom(ctx, r.db).First(&customer, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

type stateTaxRepository struct {
	db *gorm.DB
}

// NewStateTaxRepository creates a new state tax repository
func NewStateTaxRepository(db *gorm.DB) domainRepo.StateTaxRepository {
	return &stateTaxRepository{db: db}
}

func (r *stateTaxRepository) List(ctx context.Context) ([]entity.StateTaxInfo, error) {
	var rows []entity.StateTaxInfo
	err := dbFrom(ctx, r.db).Order("state ASC").Find(&rows).Error
	return rows, err
}
