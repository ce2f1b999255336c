package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/qbo-connector/internal/application/service"
	"github.com/sangkips/qbo-connector/internal/domain/pricing"
	"github.com/sangkips/qbo-connector/internal/presentation/http/dto/request"
	"github.com/sangkips/qbo-connector/internal/presentation/http/dto/response"
	"github.com/shopspring/decimal"
)

// ERPHandler receives document lifecycle hooks from the ERP
type ERPHandler struct {
	pricingService  *service.PricingService
	customerService *service.CustomerService
	outboundService *service.OutboundService
}

// NewERPHandler creates a new ERP hook handler
func NewERPHandler(pricingService *service.PricingService, customerService *service.CustomerService, outboundService *service.OutboundService) *ERPHandler {
	return &ERPHandler{
		pricingService:  pricingService,
		customerService: customerService,
		outboundService: outboundService,
	}
}

// PriceOrder applies negotiated prices, the quantity discount and the tax
// decision to an order before it is saved
// @Summary Price an order
// @Tags erp
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.PriceOrderRequest true "Order"
// @Success 200 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /erp/orders/pricing [post]
func (h *ERPHandler) PriceOrder(c *gin.Context) {
	var req request.PriceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	lines := make([]pricing.OrderLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, pricing.OrderLine{ItemCode: l.ItemCode, Qty: l.Qty, Rate: l.Rate})
	}

	order, err := h.pricingService.PriceOrder(c.Request.Context(), &service.PriceOrderInput{
		CustomerID:      req.CustomerID,
		Lines:           lines,
		IgnoreDiscount:  req.IgnoreDiscount,
		PriorDiscount:   req.PriorDiscount,
		CurrentDiscount: req.CurrentDiscount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order priced", order)
}

// ValidateCustomer checks a customer before it is saved
// @Summary Validate a customer
// @Tags erp
// @Security BearerAuth
// @Router /erp/customers/validate [post]
func (h *ERPHandler) ValidateCustomer(c *gin.Context) {
	var req request.ValidateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.customerService.Validate(c.Request.Context(), &service.ValidateCustomerInput{
		Name:                req.Name,
		State:               req.State,
		TaxStatus:           req.TaxStatus,
		TaxExemptionNumber:  req.TaxExemptionNumber,
		BaseDiscount:        req.BaseDiscount,
		CampID:              req.CampID,
		OtherOrganizationID: req.OtherOrganizationID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer is valid", result)
}

// InvoiceSubmitted queues the push of a submitted invoice
// @Router /erp/invoices/{id}/submitted [post]
func (h *ERPHandler) InvoiceSubmitted(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.outboundService.InvoiceSubmitted(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "Invoice queued for sync", gin.H{"id": id})
}

// PaymentSubmitted queues the push of a submitted payment
// @Router /erp/payments/{id}/submitted [post]
func (h *ERPHandler) PaymentSubmitted(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.outboundService.PaymentSubmitted(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "Payment queued for sync", gin.H{"id": id})
}

// CustomerUpdated queues the push of a saved customer
// @Router /erp/customers/{id}/updated [post]
func (h *ERPHandler) CustomerUpdated(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.outboundService.CustomerUpdated(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "Customer queued for sync", gin.H{"id": id})
}

// ItemCostChanged queues a purchase cost push
// @Router /erp/items/{code}/cost [post]
func (h *ERPHandler) ItemCostChanged(c *gin.Context) {
	h.itemChanged(c, h.outboundService.ItemCostChanged)
}

// ItemPriceChanged queues a selling price push
// @Router /erp/items/{code}/price [post]
func (h *ERPHandler) ItemPriceChanged(c *gin.Context) {
	h.itemChanged(c, h.outboundService.ItemPriceChanged)
}

func (h *ERPHandler) itemChanged(c *gin.Context, change func(ctx context.Context, code string, prior, next decimal.Decimal) (bool, error)) {
	var req request.ValueChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	code := c.Param("code")
	queued, err := change(c.Request.Context(), code, req.Prior, req.Next)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !queued {
		response.OK(c, "Value unchanged", gin.H{"item_code": code, "queued": false})
		return
	}
	response.Accepted(c, "Item queued for sync", gin.H{"item_code": code, "queued": true})
}
