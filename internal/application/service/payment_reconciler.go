package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PaymentReconciler records QuickBooks payments against local invoices
type PaymentReconciler struct {
	client AccountingClient
	repos  Repositories
	locker EntityLocker
	logger *logrus.Logger
	now    func() time.Time
}

// NewPaymentReconciler creates a new payment reconciler
func NewPaymentReconciler(client AccountingClient, repos Repositories, locker EntityLocker, logger *logrus.Logger) *PaymentReconciler {
	return &PaymentReconciler{
		client: client,
		repos:  repos,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

// ReconcilePayment creates the local payment for a QuickBooks payment the
// first time it is seen. Later notifications for the same id are no-ops.
func (r *PaymentReconciler) ReconcilePayment(ctx context.Context, realmID, externalID string) (Outcome, error) {
	fields := logrus.Fields{"external_id": externalID, "realm_id": realmID}

	unlock, err := r.locker.Lock(ctx, "payment:"+externalID)
	if err != nil {
		return OutcomeAborted, apperror.NewTransientError("payment "+externalID+" is locked", err)
	}
	defer unlock()

	existing, err := r.repos.Payments.GetByExternalID(ctx, externalID)
	if err != nil {
		return OutcomeAborted, fmt.Errorf("failed to load payment %s: %w", externalID, err)
	}
	if existing != nil {
		if existing.SyncStatus != enum.SyncStatusSynced {
			now := r.now()
			state := entity.SyncState{SyncStatus: enum.SyncStatusSynced, LastSyncedAt: &now}
			ref := entity.EntityRef{Kind: enum.EntityKindPayment, ID: existing.ID.String()}
			if err := r.repos.SyncStates.Save(ctx, ref, state, nil); err != nil {
				return OutcomeAborted, fmt.Errorf("failed to mark payment %s synced: %w", externalID, err)
			}
		}
		return OutcomeNoOp, nil
	}

	remotePmt, err := r.client.GetPayment(ctx, realmID, externalID)
	if err != nil {
		r.logger.WithFields(fields).WithError(err).Warn("Failed to fetch QuickBooks payment")
		return OutcomeAborted, err
	}

	customer, err := r.repos.Customers.GetByExternalID(ctx, remotePmt.CustomerRef.Value)
	if err != nil {
		return OutcomeAborted, fmt.Errorf("failed to load customer %s: %w", remotePmt.CustomerRef.Value, err)
	}
	if customer == nil {
		return OutcomeAborted, apperror.NewNotFoundError("Customer for QuickBooks customer " + remotePmt.CustomerRef.Value)
	}

	invoices, refs, err := r.allocate(ctx, remotePmt)
	if err != nil {
		return OutcomeAborted, err
	}
	if len(refs) == 0 {
		r.logger.WithFields(fields).Warn("Payment has no open local invoice")
		return OutcomeAborted, apperror.NewNotFoundError("Open local invoice for QuickBooks payment " + externalID)
	}

	now := r.now()
	postingDate := now
	if parsed, err := time.Parse("2006-01-02", remotePmt.TxnDate); err == nil {
		postingDate = parsed
	}
	payment := &entity.Payment{
		ExternalID:  &externalID,
		CustomerID:  customer.ID,
		PostingDate: postingDate,
		ReferenceNo: remotePmt.PaymentRefNum,
		PaidAmount:  remotePmt.TotalAmt,
		DoNotSync:   true,
		DocStatus:   enum.DocStatusPosted,
		SyncState: entity.SyncState{
			SyncStatus:   enum.SyncStatusSynced,
			LastSyncedAt: &now,
		},
		References: refs,
	}
	if remotePmt.PaymentMethodRef != nil {
		payment.ModeOfPayment = remotePmt.PaymentMethodRef.Name
	}

	err = r.repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.repos.Payments.Create(ctx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		for i := range invoices {
			if err := r.repos.Invoices.Update(ctx, &invoices[i]); err != nil {
				return fmt.Errorf("failed to update outstanding on %s: %w", invoices[i].ID, err)
			}
			if err := r.markTrackerPaid(ctx, invoices[i].ID, payment.ID); err != nil {
				return err
			}
		}
		return r.repos.Ledger.CreateEntries(ctx, paymentLedgerEntries(payment))
	})
	if err != nil {
		r.logger.WithFields(fields).WithError(err).Error("Payment reconciliation aborted")
		return OutcomeAborted, err
	}

	fields["payment_id"] = payment.ID
	fields["invoices"] = len(refs)
	r.logger.WithFields(fields).Info("Created payment from QuickBooks")
	return OutcomeCreated, nil
}

// allocate resolves each linked invoice and decrements its outstanding
// amount in memory. An invoice linked by several lines is loaded once and
// decremented cumulatively into a single reference. Fully paid invoices are
// skipped.
func (r *PaymentReconciler) allocate(ctx context.Context, p *remote.Payment) ([]entity.Invoice, []entity.PaymentReference, error) {
	loaded := make(map[string]*entity.Invoice)
	refIndex := make(map[uuid.UUID]int)
	var order []*entity.Invoice
	var refs []entity.PaymentReference
	for _, line := range p.Line {
		for _, txn := range line.LinkedTxn {
			if txn.TxnType != remote.TxnTypeInvoice {
				continue
			}
			inv, seen := loaded[txn.TxnID]
			if !seen {
				matches, err := r.repos.Invoices.ListActiveByExternalID(ctx, txn.TxnID)
				if err != nil {
					return nil, nil, fmt.Errorf("failed to find invoice %s: %w", txn.TxnID, err)
				}
				if len(matches) > 0 {
					inv = &matches[0]
				}
				loaded[txn.TxnID] = inv
			}
			if inv == nil {
				r.logger.WithFields(logrus.Fields{
					"payment_id": p.ID,
					"invoice_id": txn.TxnID,
				}).Warn("Linked invoice not found locally")
				continue
			}
			if !inv.OutstandingAmount.IsPositive() {
				r.logger.WithFields(logrus.Fields{
					"payment_id": p.ID,
					"invoice_id": inv.ID,
				}).Info("Invoice already paid, skipping")
				continue
			}

			amount := decimal.Min(line.Amount, inv.OutstandingAmount)
			inv.OutstandingAmount = inv.OutstandingAmount.Sub(amount)
			if i, ok := refIndex[inv.ID]; ok {
				refs[i].AllocatedAmount = refs[i].AllocatedAmount.Add(amount)
				continue
			}
			refIndex[inv.ID] = len(refs)
			order = append(order, inv)
			refs = append(refs, entity.PaymentReference{
				InvoiceID:       inv.ID,
				AllocatedAmount: amount,
			})
		}
	}

	invoices := make([]entity.Invoice, 0, len(order))
	for _, inv := range order {
		invoices = append(invoices, *inv)
	}
	return invoices, refs, nil
}

func (r *PaymentReconciler) markTrackerPaid(ctx context.Context, invoiceID, paymentID uuid.UUID) error {
	tracker, err := r.repos.Trackers.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to load tracker for invoice %s: %w", invoiceID, err)
	}
	if tracker == nil {
		return nil
	}
	tracker.PaymentID = &paymentID
	tracker.Status = enum.TrackerStatusPaymentReceived
	if err := r.repos.Trackers.Update(ctx, tracker); err != nil {
		return fmt.Errorf("failed to update tracker %s: %w", tracker.Name, err)
	}
	return nil
}
