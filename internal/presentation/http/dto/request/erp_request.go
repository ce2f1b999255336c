package request

import (
	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// OrderLineRequest is one line of an order being priced
type OrderLineRequest struct {
	ItemCode string          `json:"item_code" binding:"required"`
	Qty      decimal.Decimal `json:"qty"`
	Rate     decimal.Decimal `json:"rate"`
}

// PriceOrderRequest represents a sales order or invoice about to be saved
type PriceOrderRequest struct {
	CustomerID      uuid.UUID          `json:"customer_id" binding:"required"`
	Lines           []OrderLineRequest `json:"lines" binding:"required,dive"`
	IgnoreDiscount  bool               `json:"ignore_discount"`
	PriorDiscount   *decimal.Decimal   `json:"prior_discount"`
	CurrentDiscount decimal.Decimal    `json:"current_discount"`
}

// ValidateCustomerRequest represents a customer about to be saved
type ValidateCustomerRequest struct {
	Name                string          `json:"name" binding:"required"`
	State               string          `json:"state"`
	TaxStatus           enum.TaxStatus  `json:"tax_status"`
	TaxExemptionNumber  *string         `json:"tax_exemption_number"`
	BaseDiscount        decimal.Decimal `json:"base_discount"`
	CampID              *uuid.UUID      `json:"camp_id"`
	OtherOrganizationID *uuid.UUID      `json:"other_organization_id"`
}

// ValueChangeRequest carries an item cost or price before and after a save
type ValueChangeRequest struct {
	Prior decimal.Decimal `json:"prior"`
	Next  decimal.Decimal `json:"next"`
}
