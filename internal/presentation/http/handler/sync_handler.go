package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/qbo-connector/internal/application/service"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/sangkips/qbo-connector/internal/presentation/http/dto/request"
	"github.com/sangkips/qbo-connector/internal/presentation/http/dto/response"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/sangkips/qbo-connector/pkg/pagination"
)

// SyncHandler exposes the operator sync view and manual controls
type SyncHandler struct {
	statusService  *service.SyncStatusService
	invoiceService *service.ReconciliationService
	paymentService *service.PaymentReconciler
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(statusService *service.SyncStatusService, invoiceService *service.ReconciliationService, paymentService *service.PaymentReconciler) *SyncHandler {
	return &SyncHandler{
		statusService:  statusService,
		invoiceService: invoiceService,
		paymentService: paymentService,
	}
}

// List handles listing records of a kind by sync status
// @Summary List sync states
// @Tags sync
// @Security BearerAuth
// @Param kind path string true "invoice, payment, customer or item"
// @Param status query string false "Sync status, default Failed"
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Success 200 {object} response.APIResponse
// @Router /sync/{kind} [get]
func (h *SyncHandler) List(c *gin.Context) {
	kind, ok := enum.ParseEntityKind(c.Param("kind"))
	if !ok {
		response.Error(c, apperror.NewFieldValidationError("kind", "must be invoice, payment, customer or item"))
		return
	}

	query := request.SyncListQuery{PaginationParams: *pagination.DefaultPagination()}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	status := enum.SyncStatusFailed
	if query.Status != "" {
		parsed, err := enum.ParseSyncStatus(query.Status)
		if err != nil {
			response.Error(c, apperror.NewFieldValidationError("status", err.Error()))
			return
		}
		status = parsed
	}

	result, err := h.statusService.List(c.Request.Context(), kind, status, &query.PaginationParams)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Sync states retrieved", result)
}

// RetryFailed re-dispatches every Failed record of a kind
// @Router /sync/{kind}/retry-failed [post]
func (h *SyncHandler) RetryFailed(c *gin.Context) {
	kind, ok := enum.ParseEntityKind(c.Param("kind"))
	if !ok {
		response.Error(c, apperror.NewFieldValidationError("kind", "must be invoice, payment, customer or item"))
		return
	}

	result, err := h.statusService.RetryAllFailed(c.Request.Context(), kind)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Retry finished", result)
}

// ReconcileInvoice runs the inbound invoice reconciliation for one id, the
// same way a webhook would
// @Router /sync/invoices/{externalId}/reconcile [post]
func (h *SyncHandler) ReconcileInvoice(c *gin.Context) {
	externalID := c.Param("externalId")
	outcome, err := h.invoiceService.ReconcileInvoice(c.Request.Context(), "", externalID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice reconciled", gin.H{"external_id": externalID, "outcome": outcome})
}

// ReconcilePayment runs the inbound payment reconciliation for one id
// @Router /sync/payments/{externalId}/reconcile [post]
func (h *SyncHandler) ReconcilePayment(c *gin.Context) {
	externalID := c.Param("externalId")
	outcome, err := h.paymentService.ReconcilePayment(c.Request.Context(), "", externalID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment reconciled", gin.H{"external_id": externalID, "outcome": outcome})
}
