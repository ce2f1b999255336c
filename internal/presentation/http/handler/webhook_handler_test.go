package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/qbo-connector/internal/application/service"
	"github.com/sangkips/qbo-connector/internal/application/worker"
	"github.com/sangkips/qbo-connector/pkg/logger"
	"github.com/sangkips/qbo-connector/pkg/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const verifierToken = "verifier-123"

var invoicePayload = []byte(`{"eventNotifications":[{"realmId":"4620","dataChangeEvent":{"entities":[{"name":"Invoice","id":"42","operation":"Update","lastUpdated":"2026-03-09T10:00:00Z"}]}}]}`)

func newWebhookRouter(invoices *stubReconciler, queue *recordingQueue, async bool, maxBody int64) *gin.Engine {
	svc := service.NewWebhookService(invoices, &stubReconciler{}, queue, async, logger.Discard())
	h := NewWebhookHandler(svc, verifierToken, maxBody, logger.Discard())
	router := gin.New()
	router.POST("/webhooks/qbo", h.Receive)
	return router
}

func signed(body []byte) map[string]string {
	return map[string]string{webhook.SignatureHeader: webhook.Sign(body, []byte(verifierToken))}
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	invoices := &stubReconciler{}
	router := newWebhookRouter(invoices, &recordingQueue{}, false, 0)

	w := perform(t, router, http.MethodPost, "/webhooks/qbo", invoicePayload, map[string]string{
		webhook.SignatureHeader: webhook.Sign(invoicePayload, []byte("wrong")),
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid signature", decode(t, w)["error"])
	assert.Empty(t, invoices.seen)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	router := newWebhookRouter(&stubReconciler{}, &recordingQueue{}, false, 0)

	w := perform(t, router, http.MethodPost, "/webhooks/qbo", invoicePayload, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookSignatureCoversRawBytes(t *testing.T) {
	router := newWebhookRouter(&stubReconciler{}, &recordingQueue{}, false, 0)

	// same JSON, different whitespace
	reformatted := []byte(strings.Replace(string(invoicePayload), `"name":"Invoice"`, `"name": "Invoice"`, 1))
	w := perform(t, router, http.MethodPost, "/webhooks/qbo", reformatted, signed(invoicePayload))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookProcessesInline(t *testing.T) {
	invoices := &stubReconciler{}
	router := newWebhookRouter(invoices, &recordingQueue{}, false, 0)

	w := perform(t, router, http.MethodPost, "/webhooks/qbo", invoicePayload, signed(invoicePayload))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decode(t, w)["status"])
	assert.Equal(t, []string{"42"}, invoices.seen)
}

func TestWebhookQueuesWhenAsync(t *testing.T) {
	invoices := &stubReconciler{}
	queue := &recordingQueue{}
	router := newWebhookRouter(invoices, queue, true, 0)

	w := perform(t, router, http.MethodPost, "/webhooks/qbo", invoicePayload, signed(invoicePayload))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, queue.jobs, 1)
	assert.Empty(t, invoices.seen)
}

func TestWebhookQueueFullReturnsServerError(t *testing.T) {
	router := newWebhookRouter(&stubReconciler{}, &recordingQueue{err: worker.ErrQueueFull}, true, 0)

	w := perform(t, router, http.MethodPost, "/webhooks/qbo", invoicePayload, signed(invoicePayload))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode(t, w)["error"])
}

func TestWebhookMalformedPayload(t *testing.T) {
	body := []byte(`{"eventNotifications":`)
	router := newWebhookRouter(&stubReconciler{}, &recordingQueue{}, false, 0)

	w := perform(t, router, http.MethodPost, "/webhooks/qbo", body, signed(body))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhookBodyTooLarge(t *testing.T) {
	invoices := &stubReconciler{}
	router := newWebhookRouter(invoices, &recordingQueue{}, false, 16)

	w := perform(t, router, http.MethodPost, "/webhooks/qbo", invoicePayload, signed(invoicePayload))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, invoices.seen)
}
