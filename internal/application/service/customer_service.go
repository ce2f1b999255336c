package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/sangkips/qbo-connector/internal/domain/pricing"
	"github.com/sangkips/qbo-connector/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// CustomerService checks ERP customers before they are saved
type CustomerService struct {
	stateTax repository.StateTaxRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(stateTax repository.StateTaxRepository) *CustomerService {
	return &CustomerService{stateTax: stateTax}
}

// ValidateCustomerInput represents a customer about to be saved
type ValidateCustomerInput struct {
	Name                string
	State               string
	TaxStatus           enum.TaxStatus
	TaxExemptionNumber  *string
	BaseDiscount        decimal.Decimal
	CampID              *uuid.UUID
	OtherOrganizationID *uuid.UUID
}

// CustomerValidation is the advice returned for a customer that may be saved
type CustomerValidation struct {
	SyncStatus enum.SyncStatus `json:"sync_status"`
	Message    string          `json:"message,omitempty"`
	TaxExempt  bool            `json:"tax_exempt"`
}

// Validate rejects a customer with an out of range discount, an exempt
// status without a number, or two organizations. Anything else passes
// with the sync status the customer would get.
func (s *CustomerService) Validate(ctx context.Context, input *ValidateCustomerInput) (*CustomerValidation, error) {
	customer := &entity.Customer{
		Name:                input.Name,
		State:               input.State,
		TaxStatus:           input.TaxStatus,
		TaxExemptionNumber:  input.TaxExemptionNumber,
		BaseDiscount:        input.BaseDiscount,
		CampID:              input.CampID,
		OtherOrganizationID: input.OtherOrganizationID,
	}
	if err := pricing.ValidateCustomer(customer); err != nil {
		return nil, err
	}

	rows, err := s.stateTax.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state tax table: %w", err)
	}
	exempt, _ := pricing.IsTaxExempt(customer, pricing.NewStateTaxTable(rows), pricing.Advisory)

	status, message := pricing.Readiness(customer)
	return &CustomerValidation{
		SyncStatus: status,
		Message:    message,
		TaxExempt:  exempt,
	}, nil
}
