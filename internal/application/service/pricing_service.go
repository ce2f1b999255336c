package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/pricing"
	"github.com/sangkips/qbo-connector/internal/domain/repository"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PricingService prices an ERP order before it is saved
type PricingService struct {
	customers repository.CustomerRepository
	stateTax  repository.StateTaxRepository
	logger    *logrus.Logger
}

// NewPricingService creates a new pricing service
func NewPricingService(customers repository.CustomerRepository, stateTax repository.StateTaxRepository, logger *logrus.Logger) *PricingService {
	return &PricingService{
		customers: customers,
		stateTax:  stateTax,
		logger:    logger,
	}
}

// PriceOrderInput represents an order about to be saved
type PriceOrderInput struct {
	CustomerID     uuid.UUID
	Lines          []pricing.OrderLine
	IgnoreDiscount bool
	// PriorDiscount is the stored discount percent, nil for a new order
	PriorDiscount *decimal.Decimal
	// CurrentDiscount is the percent on the incoming document
	CurrentDiscount decimal.Decimal
}

// PricedOrder is the order with negotiated prices, discount and tax applied
type PricedOrder struct {
	Lines           []pricing.OrderLine `json:"lines"`
	TotalQty        decimal.Decimal     `json:"total_qty"`
	NetTotal        decimal.Decimal     `json:"net_total"`
	IgnoreDiscount  bool                `json:"ignore_discount"`
	DiscountPercent decimal.Decimal     `json:"discount_percent"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	DiscountChanged bool                `json:"discount_changed"`
	TaxExempt       bool                `json:"tax_exempt"`
	Messages        []string            `json:"messages,omitempty"`
}

// PriceOrder validates the customer, applies negotiated organization
// prices, works out the discount and decides tax exemption. An unknown
// customer state fails the order.
func (s *PricingService) PriceOrder(ctx context.Context, input *PriceOrderInput) (*PricedOrder, error) {
	if len(input.Lines) == 0 {
		return nil, apperror.NewFieldValidationError("lines", "Order must have at least one line")
	}

	customer, err := s.customers.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer %s: %w", input.CustomerID, err)
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	if err := pricing.ValidateCustomer(customer); err != nil {
		return nil, err
	}

	negotiated := pricing.ApplyNegotiatedPrices(input.Lines, customer.OrganizationLink().Organization)
	ignore := input.IgnoreDiscount || negotiated.IgnoreDiscount

	order := &PricedOrder{
		Lines:          negotiated.Lines,
		TotalQty:       pricing.TotalQty(negotiated.Lines),
		NetTotal:       pricing.NetTotal(negotiated.Lines),
		IgnoreDiscount: ignore,
		Messages:       negotiated.Messages,
	}

	next := pricing.EffectiveDiscount(customer.BaseDiscount, order.TotalQty, ignore)
	order.DiscountPercent = input.CurrentDiscount
	if pricing.ShouldApplyDiscount(input.PriorDiscount, input.CurrentDiscount, next) {
		order.DiscountPercent = next
		order.DiscountChanged = !next.Equal(input.CurrentDiscount)
	}
	order.DiscountAmount = pricing.DiscountAmount(order.NetTotal, order.DiscountPercent)

	exempt, err := s.isTaxExempt(ctx, customer)
	if err != nil {
		return nil, err
	}
	order.TaxExempt = exempt

	s.logger.WithFields(logrus.Fields{
		"customer_id":      customer.ID,
		"total_qty":        order.TotalQty.String(),
		"discount_percent": order.DiscountPercent.String(),
		"tax_exempt":       exempt,
	}).Debug("Order priced")
	return order, nil
}

func (s *PricingService) isTaxExempt(ctx context.Context, customer *entity.Customer) (bool, error) {
	rows, err := s.stateTax.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load state tax table: %w", err)
	}
	exempt, err := pricing.IsTaxExempt(customer, pricing.NewStateTaxTable(rows), pricing.Strict)
	if errors.Is(err, pricing.ErrUnknownState) {
		return false, apperror.NewFieldValidationError("state",
			fmt.Sprintf("No tax information for state %q", customer.State))
	}
	return exempt, err
}
