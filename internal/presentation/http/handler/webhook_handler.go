package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/qbo-connector/internal/application/service"
	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/sangkips/qbo-connector/pkg/webhook"
	"github.com/sirupsen/logrus"
)

// WebhookHandler receives QuickBooks change notifications
type WebhookHandler struct {
	webhookService *service.WebhookService
	verifierToken  []byte
	maxBodyBytes   int64
	logger         *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookService *service.WebhookService, verifierToken string, maxBodyBytes int64, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		verifierToken:  []byte(verifierToken),
		maxBodyBytes:   maxBodyBytes,
		logger:         logger,
	}
}

// Receive verifies the signature over the raw body before anything is
// decoded. Intuit only looks at the status code and redelivers on 5xx.
// @Summary QuickBooks webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /webhooks/qbo [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	body := c.Request.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(c.Writer, body, h.maxBodyBytes)
	}
	rawBody, err := io.ReadAll(body)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read webhook body")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !webhook.Verify(rawBody, c.GetHeader(webhook.SignatureHeader), h.verifierToken) {
		h.logger.WithField("client_ip", c.ClientIP()).Warn("Rejected webhook with invalid signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var payload remote.WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		h.logger.WithError(err).Error("Failed to decode webhook payload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.webhookService.Dispatch(c.Request.Context(), &payload); err != nil {
		h.logger.WithError(err).Error("Failed to dispatch webhook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
