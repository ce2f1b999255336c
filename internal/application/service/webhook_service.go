package service

import (
	"context"

	"github.com/sangkips/qbo-connector/internal/application/worker"
	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/sirupsen/logrus"
)

type invoiceReconciler interface {
	ReconcileInvoice(ctx context.Context, realmID, externalID string) (Outcome, error)
}

type paymentReconciler interface {
	ReconcilePayment(ctx context.Context, realmID, externalID string) (Outcome, error)
}

// EntityResult is the outcome of one entity in a notification
type EntityResult struct {
	RealmID   string  `json:"realm_id"`
	Name      string  `json:"name"`
	ID        string  `json:"id"`
	Operation string  `json:"operation"`
	Outcome   Outcome `json:"outcome"`
	Error     string  `json:"error,omitempty"`
}

// WebhookService routes verified notifications to the reconcilers
type WebhookService struct {
	invoices invoiceReconciler
	payments paymentReconciler
	queue    JobQueue
	async    bool
	logger   *logrus.Logger
}

// NewWebhookService creates a new webhook service. With async set,
// payloads are processed on queue after the HTTP response.
func NewWebhookService(invoices invoiceReconciler, payments paymentReconciler, queue JobQueue, async bool, logger *logrus.Logger) *WebhookService {
	return &WebhookService{
		invoices: invoices,
		payments: payments,
		queue:    queue,
		async:    async,
		logger:   logger,
	}
}

// Dispatch hands the payload to the job queue, or processes it inline when
// async delivery is off. A full queue is an error so Intuit redelivers.
func (s *WebhookService) Dispatch(ctx context.Context, payload *remote.WebhookPayload) error {
	if !s.async {
		s.Process(ctx, payload)
		return nil
	}

	err := s.queue.Submit(worker.Job{
		Name: "webhook",
		Run: func(ctx context.Context) error {
			s.Process(ctx, payload)
			return nil
		},
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to queue webhook payload")
		return apperror.NewTransientError("webhook queue unavailable", err)
	}
	return nil
}

// Process reconciles every entity in array order. A failing entity is
// logged and does not stop the ones after it.
func (s *WebhookService) Process(ctx context.Context, payload *remote.WebhookPayload) []EntityResult {
	var results []EntityResult
	for _, notification := range payload.EventNotifications {
		for _, change := range notification.DataChangeEvent.Entities {
			results = append(results, s.processEntity(ctx, notification.RealmID, change))
		}
	}
	return results
}

func (s *WebhookService) processEntity(ctx context.Context, realmID string, change remote.EntityChange) EntityResult {
	result := EntityResult{
		RealmID:   realmID,
		Name:      change.Name,
		ID:        change.ID,
		Operation: change.Operation,
	}
	fields := logrus.Fields{
		"realm_id":  realmID,
		"entity":    change.Name,
		"id":        change.ID,
		"operation": change.Operation,
	}

	var err error
	switch change.Name {
	case remote.EntityInvoice:
		result.Outcome, err = s.invoices.ReconcileInvoice(ctx, realmID, change.ID)
	case remote.EntityPayment:
		result.Outcome, err = s.payments.ReconcilePayment(ctx, realmID, change.ID)
	default:
		s.logger.WithFields(fields).Debug("Ignoring webhook entity")
		result.Outcome = OutcomeNoOp
		return result
	}

	if err != nil {
		result.Error = err.Error()
		s.logger.WithFields(fields).WithError(err).Error("Webhook entity aborted")
		return result
	}
	fields["outcome"] = result.Outcome
	s.logger.WithFields(fields).Info("Webhook entity processed")
	return result
}
