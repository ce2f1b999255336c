package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/application/mapper"
	"github.com/sangkips/qbo-connector/internal/application/worker"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/sangkips/qbo-connector/internal/domain/pricing"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// OutboundService pushes local records to QuickBooks. Pushes triggered by
// ERP events run on the job queue so the ERP save never waits on the
// network. A failed push is recorded and left for the retry workflow.
type OutboundService struct {
	client   AccountingClient
	repos    Repositories
	status   *SyncStatusService
	queue    JobQueue
	payments mapper.PaymentSettings
	logger   *logrus.Logger
}

// NewOutboundService creates a new outbound sync service
func NewOutboundService(client AccountingClient, repos Repositories, status *SyncStatusService, queue JobQueue, payments mapper.PaymentSettings, logger *logrus.Logger) *OutboundService {
	return &OutboundService{
		client:   client,
		repos:    repos,
		status:   status,
		queue:    queue,
		payments: payments,
		logger:   logger,
	}
}

// Dispatch pushes the record behind ref. It satisfies Dispatcher.
func (s *OutboundService) Dispatch(ctx context.Context, ref entity.EntityRef) error {
	if ref.Kind == enum.EntityKindItem {
		return s.PushItem(ctx, ref.ID)
	}

	id, err := uuid.Parse(ref.ID)
	if err != nil {
		return apperror.NewBadRequestError("invalid id " + ref.ID)
	}
	switch ref.Kind {
	case enum.EntityKindInvoice:
		_, err = s.PushInvoice(ctx, id)
	case enum.EntityKindPayment:
		_, err = s.PushPayment(ctx, id)
	case enum.EntityKindCustomer:
		_, err = s.PushCustomer(ctx, id)
	default:
		err = apperror.NewBadRequestError("unknown entity kind " + ref.Kind.String())
	}
	return err
}

// PushInvoice creates the invoice in QuickBooks and returns its id
func (s *OutboundService) PushInvoice(ctx context.Context, id uuid.UUID) (string, error) {
	ref := entity.EntityRef{Kind: enum.EntityKindInvoice, ID: id.String()}

	inv, err := s.repos.Invoices.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to load invoice %s: %w", id, err)
	}
	if inv == nil {
		return "", apperror.NewNotFoundError("Invoice")
	}
	if inv.DoNotSync || inv.ExternalID != nil {
		return "", ErrSyncSkipped
	}
	if err := s.reopenIfFailed(ctx, ref, inv.SyncStatus); err != nil {
		return "", err
	}

	customer, err := s.repos.Customers.GetByID(ctx, inv.CustomerID)
	if err != nil {
		return "", fmt.Errorf("failed to load customer %s: %w", inv.CustomerID, err)
	}

	codes := make([]string, 0, len(inv.Items))
	for _, line := range inv.Items {
		codes = append(codes, line.ItemCode)
	}
	items, err := s.repos.Items.ListByCodes(ctx, codes)
	if err != nil {
		return "", fmt.Errorf("failed to load invoice items: %w", err)
	}

	payload, skipped, err := mapper.BuildInvoicePayload(inv, customer, items)
	if err != nil {
		return "", s.fail(ctx, ref, err)
	}
	if len(skipped) > 0 {
		s.logger.WithFields(logrus.Fields{
			"invoice_id": id,
			"items":      skipped,
		}).Warn("Invoice lines without a QuickBooks item were left out")
	}

	created, err := s.client.CreateInvoice(ctx, payload)
	if err != nil {
		return "", s.fail(ctx, ref, err)
	}

	if err := s.status.SetStatus(ctx, ref, enum.SyncStatusSynced, &created.ID, ""); err != nil {
		return "", err
	}
	s.logger.WithFields(logrus.Fields{"invoice_id": id, "external_id": created.ID}).Info("Invoice pushed to QuickBooks")
	return created.ID, nil
}

// PushPayment creates the payment in QuickBooks. A pushed payment is
// flagged do-not-sync so its echo webhook is ignored.
func (s *OutboundService) PushPayment(ctx context.Context, id uuid.UUID) (string, error) {
	ref := entity.EntityRef{Kind: enum.EntityKindPayment, ID: id.String()}

	p, err := s.repos.Payments.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to load payment %s: %w", id, err)
	}
	if p == nil {
		return "", apperror.NewNotFoundError("Payment")
	}
	if p.DoNotSync || p.ExternalID != nil {
		return "", ErrSyncSkipped
	}
	if err := s.reopenIfFailed(ctx, ref, p.SyncStatus); err != nil {
		return "", err
	}

	customer, err := s.repos.Customers.GetByID(ctx, p.CustomerID)
	if err != nil {
		return "", fmt.Errorf("failed to load customer %s: %w", p.CustomerID, err)
	}

	invoiceIDs := make(map[string]string, len(p.References))
	for _, r := range p.References {
		inv, err := s.repos.Invoices.GetByID(ctx, r.InvoiceID)
		if err != nil {
			return "", fmt.Errorf("failed to load invoice %s: %w", r.InvoiceID, err)
		}
		if inv != nil && inv.ExternalID != nil {
			invoiceIDs[r.InvoiceID.String()] = *inv.ExternalID
		}
	}

	payload, err := mapper.BuildPaymentPayload(p, customer, invoiceIDs, s.payments)
	if err != nil {
		return "", s.fail(ctx, ref, err)
	}

	created, err := s.client.CreatePayment(ctx, payload)
	if err != nil {
		return "", s.fail(ctx, ref, err)
	}

	if err := s.status.SetStatus(ctx, ref, enum.SyncStatusSynced, &created.ID, ""); err != nil {
		return "", err
	}

	// reload so the status columns just written are not overwritten
	p, err = s.repos.Payments.GetByID(ctx, id)
	if err != nil {
		return created.ID, fmt.Errorf("failed to reload payment %s: %w", id, err)
	}
	if p == nil {
		return created.ID, apperror.NewNotFoundError("Payment")
	}
	p.DoNotSync = true
	if err := s.repos.Payments.Update(ctx, p); err != nil {
		return created.ID, fmt.Errorf("failed to flag payment %s: %w", id, err)
	}

	s.logger.WithFields(logrus.Fields{"payment_id": id, "external_id": created.ID}).Info("Payment pushed to QuickBooks")
	return created.ID, nil
}

// PushCustomer creates the customer in QuickBooks once it is linked to an
// organization and its tax standing is settled. Customers already in
// QuickBooks are not updated.
func (s *OutboundService) PushCustomer(ctx context.Context, id uuid.UUID) (string, error) {
	ref := entity.EntityRef{Kind: enum.EntityKindCustomer, ID: id.String()}

	c, err := s.repos.Customers.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to load customer %s: %w", id, err)
	}
	if c == nil {
		return "", apperror.NewNotFoundError("Customer")
	}
	if c.ExternalID != nil {
		return "", ErrSyncSkipped
	}

	if err := s.reopenIfFailed(ctx, ref, c.SyncStatus); err != nil {
		return "", err
	}
	if status, msg := pricing.Readiness(c); status != enum.SyncStatusPending {
		if err := s.status.SetStatus(ctx, ref, status, nil, msg); err != nil {
			return "", err
		}
		return "", apperror.NewFieldValidationError("customer", msg)
	}

	rows, err := s.repos.StateTax.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load state tax table: %w", err)
	}
	exempt, _ := pricing.IsTaxExempt(c, pricing.NewStateTaxTable(rows), pricing.Advisory)

	created, err := s.client.CreateCustomer(ctx, mapper.BuildCustomerPayload(c, exempt))
	if err != nil {
		return "", s.fail(ctx, ref, err)
	}

	if err := s.status.SetStatus(ctx, ref, enum.SyncStatusSynced, &created.ID, ""); err != nil {
		return "", err
	}
	s.logger.WithFields(logrus.Fields{"customer_id": id, "external_id": created.ID}).Info("Customer pushed to QuickBooks")
	return created.ID, nil
}

// PushItemCost stores a changed valuation rate and sends it as the
// QuickBooks purchase cost. An unchanged value is skipped.
func (s *OutboundService) PushItemCost(ctx context.Context, code string, prior, next decimal.Decimal) error {
	if prior.Equal(next) {
		return ErrSyncSkipped
	}
	item, err := s.updateLocalItem(ctx, code, func(item *entity.Item) { item.ValuationRate = next })
	if err != nil {
		return err
	}
	return s.pushItem(ctx, item, &next, nil)
}

// PushItemPrice stores a changed list price and sends it as the
// QuickBooks unit price. An unchanged value is skipped.
func (s *OutboundService) PushItemPrice(ctx context.Context, code string, prior, next decimal.Decimal) error {
	if prior.Equal(next) {
		return ErrSyncSkipped
	}
	item, err := s.updateLocalItem(ctx, code, func(item *entity.Item) { item.PriceListRate = next })
	if err != nil {
		return err
	}
	return s.pushItem(ctx, item, nil, &next)
}

// PushItem sends the item's current cost and price
func (s *OutboundService) PushItem(ctx context.Context, code string) error {
	item, err := s.repos.Items.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to load item %s: %w", code, err)
	}
	if item == nil {
		return apperror.NewNotFoundError("Item " + code)
	}
	cost, price := item.ValuationRate, item.PriceListRate
	return s.pushItem(ctx, item, &cost, &price)
}

func (s *OutboundService) updateLocalItem(ctx context.Context, code string, apply func(*entity.Item)) (*entity.Item, error) {
	item, err := s.repos.Items.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", code, err)
	}
	if item == nil {
		return nil, apperror.NewNotFoundError("Item " + code)
	}
	apply(item)
	item.TaxTemplate = pricing.TaxTemplateFor(item.TaxCategory)
	if err := s.repos.Items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save item %s: %w", code, err)
	}
	return item, nil
}

func (s *OutboundService) pushItem(ctx context.Context, item *entity.Item, cost, price *decimal.Decimal) error {
	if item.ExternalID == nil || *item.ExternalID == "" {
		s.logger.WithField("item_code", item.Code).Info("Item is not in QuickBooks, skipping push")
		return ErrSyncSkipped
	}
	ref := entity.EntityRef{Kind: enum.EntityKindItem, ID: item.Code}
	if item.SyncStatus != enum.SyncStatusPending {
		if err := s.status.Reopen(ctx, ref); err != nil {
			return err
		}
	}

	current, err := s.client.GetItem(ctx, *item.ExternalID)
	if err != nil {
		return s.fail(ctx, ref, err)
	}
	if _, err := s.client.UpdateItem(ctx, mapper.BuildItemUpdate(current, cost, price)); err != nil {
		return s.fail(ctx, ref, err)
	}

	if err := s.status.SetStatus(ctx, ref, enum.SyncStatusSynced, nil, ""); err != nil {
		return err
	}
	s.logger.WithField("item_code", item.Code).Info("Item pushed to QuickBooks")
	return nil
}

// InvoiceSubmitted links the invoice to its shipment tracker and queues
// the push
func (s *OutboundService) InvoiceSubmitted(ctx context.Context, id uuid.UUID) error {
	inv, err := s.repos.Invoices.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load invoice %s: %w", id, err)
	}
	if inv == nil {
		return apperror.NewNotFoundError("Invoice")
	}

	if inv.SalesOrder != "" {
		tracker, err := s.repos.Trackers.FindUninvoicedBySalesOrder(ctx, inv.SalesOrder)
		if err != nil {
			return fmt.Errorf("failed to find tracker for %s: %w", inv.SalesOrder, err)
		}
		if tracker != nil {
			tracker.InvoiceID = &inv.ID
			tracker.Status = enum.TrackerStatusInvoiceSent
			if err := s.repos.Trackers.Update(ctx, tracker); err != nil {
				return fmt.Errorf("failed to link tracker %s: %w", tracker.Name, err)
			}
		}
	}

	if inv.DoNotSync {
		return nil
	}
	return s.enqueue("push-invoice:"+id.String(), func(ctx context.Context) error {
		_, err := s.PushInvoice(ctx, id)
		return err
	})
}

// PaymentSubmitted marks the paid invoices' trackers and queues the push
func (s *OutboundService) PaymentSubmitted(ctx context.Context, id uuid.UUID) error {
	p, err := s.repos.Payments.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load payment %s: %w", id, err)
	}
	if p == nil {
		return apperror.NewNotFoundError("Payment")
	}

	for _, r := range p.References {
		tracker, err := s.repos.Trackers.GetByInvoiceID(ctx, r.InvoiceID)
		if err != nil {
			return fmt.Errorf("failed to load tracker for invoice %s: %w", r.InvoiceID, err)
		}
		if tracker == nil {
			continue
		}
		tracker.PaymentID = &p.ID
		tracker.Status = enum.TrackerStatusPaymentReceived
		if err := s.repos.Trackers.Update(ctx, tracker); err != nil {
			return fmt.Errorf("failed to update tracker %s: %w", tracker.Name, err)
		}
	}

	if p.DoNotSync {
		return nil
	}
	return s.enqueue("push-payment:"+id.String(), func(ctx context.Context) error {
		_, err := s.PushPayment(ctx, id)
		return err
	})
}

// CustomerUpdated queues the customer push
func (s *OutboundService) CustomerUpdated(ctx context.Context, id uuid.UUID) error {
	return s.enqueue("push-customer:"+id.String(), func(ctx context.Context) error {
		_, err := s.PushCustomer(ctx, id)
		return err
	})
}

// ItemCostChanged queues a cost push and reports whether one was queued
func (s *OutboundService) ItemCostChanged(ctx context.Context, code string, prior, next decimal.Decimal) (bool, error) {
	if prior.Equal(next) {
		return false, nil
	}
	err := s.enqueue("push-item-cost:"+code, func(ctx context.Context) error {
		return s.PushItemCost(ctx, code, prior, next)
	})
	return err == nil, err
}

// ItemPriceChanged queues a price push and reports whether one was queued
func (s *OutboundService) ItemPriceChanged(ctx context.Context, code string, prior, next decimal.Decimal) (bool, error) {
	if prior.Equal(next) {
		return false, nil
	}
	err := s.enqueue("push-item-price:"+code, func(ctx context.Context) error {
		return s.PushItemPrice(ctx, code, prior, next)
	})
	return err == nil, err
}

func (s *OutboundService) enqueue(name string, run func(ctx context.Context) error) error {
	err := s.queue.Submit(worker.Job{
		Name: name,
		Run: func(ctx context.Context) error {
			if err := run(ctx); err != nil && !errors.Is(err, ErrSyncSkipped) {
				return err
			}
			return nil
		},
	})
	if err != nil {
		return apperror.NewTransientError("sync queue unavailable", err)
	}
	return nil
}

func (s *OutboundService) reopenIfFailed(ctx context.Context, ref entity.EntityRef, current enum.SyncStatus) error {
	if current != enum.SyncStatusFailed {
		return nil
	}
	return s.status.Reopen(ctx, ref)
}

// fail records err on the record and returns it. A customer missing from
// QuickBooks is a link problem the operator fixes locally, not a failure.
func (s *OutboundService) fail(ctx context.Context, ref entity.EntityRef, err error) error {
	status := enum.SyncStatusFailed
	message := apperror.GetAppError(err).Message
	switch {
	case errors.Is(err, mapper.ErrCustomerNotInQBO):
		status = enum.SyncStatusMissingLink
		err = apperror.NewFieldValidationError("customer", err.Error())
	case errors.Is(err, mapper.ErrNoSyncableLines), errors.Is(err, mapper.ErrPaymentMethodMissing):
		err = apperror.NewRemoteValidationError(err.Error(), err)
	}

	if setErr := s.status.SetStatus(ctx, ref, status, nil, message); setErr != nil {
		s.logger.WithField("ref", ref.String()).WithError(setErr).Error("Failed to record sync failure")
	}
	s.logger.WithFields(logrus.Fields{
		"ref":    ref.String(),
		"status": status.String(),
	}).WithError(err).Warn("Push to QuickBooks failed")
	return err
}
