package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sangkips/qbo-connector/internal/application/worker"
	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/sangkips/qbo-connector/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubReconciler records the ids it was asked about and fails on demand
type stubReconciler struct {
	seen    []string
	fail    map[string]error
	outcome Outcome
}

func (s *stubReconciler) ReconcileInvoice(ctx context.Context, realmID, externalID string) (Outcome, error) {
	return s.reconcile(externalID)
}

func (s *stubReconciler) ReconcilePayment(ctx context.Context, realmID, externalID string) (Outcome, error) {
	return s.reconcile(externalID)
}

func (s *stubReconciler) reconcile(id string) (Outcome, error) {
	s.seen = append(s.seen, id)
	if err := s.fail[id]; err != nil {
		return OutcomeAborted, err
	}
	return s.outcome, nil
}

func webhookPayload(changes ...remote.EntityChange) *remote.WebhookPayload {
	return &remote.WebhookPayload{
		EventNotifications: []remote.EventNotification{{
			RealmID:         "4620",
			DataChangeEvent: remote.DataChangeEvent{Entities: changes},
		}},
	}
}

func TestProcessIsolatesEntityFailures(t *testing.T) {
	invoices := &stubReconciler{
		outcome: OutcomeCreated,
		fail:    map[string]error{"41": apperror.NewNotFoundError("Customer")},
	}
	payments := &stubReconciler{outcome: OutcomeNoOp}
	svc := NewWebhookService(invoices, payments, &recordingQueue{}, false, logger.Discard())

	results := svc.Process(context.Background(), webhookPayload(
		remote.EntityChange{Name: remote.EntityInvoice, ID: "41", Operation: "Update"},
		remote.EntityChange{Name: remote.EntityInvoice, ID: "42", Operation: "Create"},
		remote.EntityChange{Name: remote.EntityPayment, ID: "900", Operation: "Create"},
		remote.EntityChange{Name: remote.EntityCustomer, ID: "7", Operation: "Update"},
	))

	require.Len(t, results, 4)
	assert.Equal(t, OutcomeAborted, results[0].Outcome)
	assert.NotEmpty(t, results[0].Error)
	assert.Equal(t, OutcomeCreated, results[1].Outcome)
	assert.Equal(t, OutcomeNoOp, results[2].Outcome)
	assert.Equal(t, OutcomeNoOp, results[3].Outcome)
	assert.Equal(t, "4620", results[3].RealmID)

	assert.Equal(t, []string{"41", "42"}, invoices.seen, "entities run in array order")
	assert.Equal(t, []string{"900"}, payments.seen)
}

func TestDispatchInlineWhenSync(t *testing.T) {
	invoices := &stubReconciler{outcome: OutcomeCreated}
	queue := &recordingQueue{}
	svc := NewWebhookService(invoices, &stubReconciler{}, queue, false, logger.Discard())

	err := svc.Dispatch(context.Background(), webhookPayload(remote.EntityChange{Name: remote.EntityInvoice, ID: "42"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, invoices.seen)
	assert.Empty(t, queue.jobs)
}

func TestDispatchQueuesWhenAsync(t *testing.T) {
	invoices := &stubReconciler{outcome: OutcomeCreated}
	queue := &recordingQueue{}
	svc := NewWebhookService(invoices, &stubReconciler{}, queue, true, logger.Discard())

	err := svc.Dispatch(context.Background(), webhookPayload(remote.EntityChange{Name: remote.EntityInvoice, ID: "42"}))
	require.NoError(t, err)
	assert.Empty(t, invoices.seen, "nothing runs before the job")

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "webhook", queue.jobs[0].Name)
	for _, err := range queue.runAll(context.Background()) {
		assert.NoError(t, err)
	}
	assert.Equal(t, []string{"42"}, invoices.seen)
}

func TestDispatchQueueFullIsTransient(t *testing.T) {
	queue := &recordingQueue{err: worker.ErrQueueFull}
	svc := NewWebhookService(&stubReconciler{}, &stubReconciler{}, queue, true, logger.Discard())

	err := svc.Dispatch(context.Background(), webhookPayload(remote.EntityChange{Name: remote.EntityInvoice, ID: "42"}))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindTransientNetwork))
	assert.True(t, errors.Is(err, worker.ErrQueueFull))
}
