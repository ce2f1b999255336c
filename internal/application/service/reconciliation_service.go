package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/application/mapper"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/sangkips/qbo-connector/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const reconcileModule = "reconciliation"

// Outcome is the single result every inbound notification resolves to
type Outcome string

const (
	OutcomeNoOp     Outcome = "noop"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeCreated  Outcome = "created"
	OutcomeReplaced Outcome = "replaced"
	OutcomeRepaired Outcome = "repaired"
	OutcomeAborted  Outcome = "aborted"
)

// ReconcileConfig holds the comparison thresholds
type ReconcileConfig struct {
	// GraceWindow ignores mismatches on invoices created this recently
	GraceWindow time.Duration
	// Tolerance is the largest total difference still treated as equal
	Tolerance decimal.Decimal
}

// ReconciliationService brings local invoices in line with QuickBooks
type ReconciliationService struct {
	client AccountingClient
	repos  Repositories
	mapper *mapper.InvoiceMapper
	locker EntityLocker
	cfg    ReconcileConfig
	logger *logrus.Logger
	now    func() time.Time
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(client AccountingClient, repos Repositories, locker EntityLocker, cfg ReconcileConfig, logger *logrus.Logger) *ReconciliationService {
	return &ReconciliationService{
		client: client,
		repos:  repos,
		mapper: mapper.NewInvoiceMapper(repos.Items, logger),
		locker: locker,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// ReconcileInvoice fetches the remote invoice and reconciles the local
// invoices holding its id. Calls for the same id are serialised.
//
// With no local match the invoice is created. With one match it is left
// alone when totals agree, skipped inside the grace window, and replaced
// otherwise. Extra matches are deleted first, keeping the one linked to a
// shipment tracker.
func (s *ReconciliationService) ReconcileInvoice(ctx context.Context, realmID, externalID string) (Outcome, error) {
	fields := logrus.Fields{"external_id": externalID, "realm_id": realmID}

	unlock, err := s.locker.Lock(ctx, "invoice:"+externalID)
	if err != nil {
		return OutcomeAborted, apperror.NewTransientError("invoice "+externalID+" is locked", err)
	}
	defer unlock()

	remoteInv, err := s.client.GetInvoice(ctx, realmID, externalID)
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("Failed to fetch QuickBooks invoice")
		return OutcomeAborted, err
	}

	matches, err := s.repos.Invoices.ListActiveByExternalID(ctx, externalID)
	if err != nil {
		return OutcomeAborted, fmt.Errorf("failed to list invoices for %s: %w", externalID, err)
	}

	var outcome Outcome
	switch len(matches) {
	case 0:
		outcome, err = s.createFromRemote(ctx, remoteInv)
	case 1:
		outcome, err = s.reconcileSingle(ctx, remoteInv, &matches[0])
	default:
		outcome, err = s.reconcileMultiple(ctx, remoteInv, matches)
	}
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Invoice reconciliation aborted")
		return OutcomeAborted, err
	}

	fields["outcome"] = outcome
	s.logger.WithFields(fields).Info("Invoice reconciled")
	return outcome, nil
}

func (s *ReconciliationService) reconcileSingle(ctx context.Context, remoteInv *remote.Invoice, local *entity.Invoice) (Outcome, error) {
	if outcome, replace := s.compare(remoteInv, local); !replace {
		return outcome, nil
	}

	draft, err := s.buildFromRemote(ctx, remoteInv)
	if err != nil {
		return OutcomeAborted, err
	}
	if err := s.replaceInvoice(ctx, local, draft); err != nil {
		return OutcomeAborted, err
	}
	return OutcomeReplaced, nil
}

// compare reports whether local must be replaced by the remote invoice, and
// the outcome to report when it is not
func (s *ReconciliationService) compare(remoteInv *remote.Invoice, local *entity.Invoice) (Outcome, bool) {
	if remoteInv.TotalAmt.Sub(local.GrandTotal).Abs().LessThan(s.cfg.Tolerance) {
		return OutcomeNoOp, false
	}

	if s.now().Sub(local.CreatedAt) < s.cfg.GraceWindow {
		s.logger.WithFields(logrus.Fields{
			"invoice_id":   local.ID,
			"external_id":  remoteInv.ID,
			"local_total":  local.GrandTotal.String(),
			"remote_total": remoteInv.TotalAmt.String(),
		}).Info("Totals differ on a just-created invoice, skipping")
		return OutcomeSkipped, false
	}
	return OutcomeReplaced, true
}

// reconcileMultiple repairs a broken one-active-invoice rule and then
// reconciles the survivor. A replacement for the survivor is built before
// anything is deleted.
func (s *ReconciliationService) reconcileMultiple(ctx context.Context, remoteInv *remote.Invoice, matches []entity.Invoice) (Outcome, error) {
	s.logger.WithFields(logrus.Fields{
		"external_id": remoteInv.ID,
		"matches":     len(matches),
	}).Warn("Multiple active invoices share a QuickBooks id, repairing")

	keep := 0
	for i := range matches {
		tracker, err := s.repos.Trackers.GetByInvoiceID(ctx, matches[i].ID)
		if err != nil {
			return OutcomeAborted, fmt.Errorf("failed to load tracker for invoice %s: %w", matches[i].ID, err)
		}
		if tracker != nil {
			keep = i
			break
		}
	}
	survivor := &matches[keep]

	var draft *entity.Invoice
	if _, replace := s.compare(remoteInv, survivor); replace {
		built, err := s.buildFromRemote(ctx, remoteInv)
		if err != nil {
			return OutcomeAborted, err
		}
		draft = built
	}

	for i := range matches {
		if i == keep {
			continue
		}
		if err := s.deleteInvoice(ctx, &matches[i], survivor.ID); err != nil {
			return OutcomeAborted, err
		}
	}

	if draft != nil {
		if err := s.replaceInvoice(ctx, survivor, draft); err != nil {
			return OutcomeAborted, err
		}
	}
	return OutcomeRepaired, nil
}

// createFromRemote inserts the invoice for a QuickBooks id with no local
// match
func (s *ReconciliationService) createFromRemote(ctx context.Context, remoteInv *remote.Invoice) (Outcome, error) {
	draft, err := s.buildFromRemote(ctx, remoteInv)
	if err != nil {
		return OutcomeAborted, err
	}
	err = s.repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.persist(ctx, draft, nil)
	})
	if err != nil {
		return OutcomeAborted, err
	}
	return OutcomeCreated, nil
}

// buildFromRemote resolves the customer and maps the lines without touching
// the store. The draft carries its id so allocations can be moved onto it
// before it is inserted. The outstanding amount is the QuickBooks balance.
func (s *ReconciliationService) buildFromRemote(ctx context.Context, remoteInv *remote.Invoice) (*entity.Invoice, error) {
	customerRef := remoteInv.CustomerRef.Value
	customer, err := s.repos.Customers.GetByExternalID(ctx, customerRef)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer %s: %w", customerRef, err)
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer for QuickBooks customer " + customerRef)
	}

	mapped, err := s.mapper.MapInvoice(ctx, remoteInv)
	if err != nil {
		return nil, err
	}
	if len(mapped.SkippedItemIDs) > 0 {
		s.logger.WithFields(logrus.Fields{
			"external_id": remoteInv.ID,
			"skipped":     mapped.SkippedItemIDs,
		}).Warn("QuickBooks invoice lines skipped")
	}

	now := s.now()
	postingDate := now
	if parsed, err := time.Parse("2006-01-02", remoteInv.TxnDate); err == nil {
		postingDate = parsed
	}
	externalID := remoteInv.ID

	return &entity.Invoice{
		ID:                uuid.New(),
		ExternalID:        &externalID,
		CustomerID:        customer.ID,
		SalesOrder:        remoteInv.DocNumber,
		PostingDate:       postingDate,
		Currency:          mapped.Currency,
		ExchangeRate:      mapped.ExchangeRate,
		TotalQty:          mapped.TotalQty,
		NetTotal:          mapped.NetTotal,
		TaxTotal:          mapped.TaxTotal,
		DiscountPercent:   mapped.EffectiveDiscountPercent(),
		DiscountAmount:    mapped.DiscountAmount,
		GrandTotal:        mapped.GrandTotal,
		OutstandingAmount: mapped.Balance,
		DoNotSync:         true,
		DocStatus:         enum.DocStatusPosted,
		SyncState: entity.SyncState{
			SyncStatus:   enum.SyncStatusSynced,
			LastSyncedAt: &now,
		},
		Items: mapped.Items,
	}, nil
}

// persist inserts the invoice, its postings and its tracker link. It runs
// inside the caller's transaction. preserved is a tracker detached from a
// replaced invoice; without one the tracker is matched by sales order.
func (s *ReconciliationService) persist(ctx context.Context, invoice *entity.Invoice, preserved *entity.ShipmentTracker) error {
	if err := s.repos.Invoices.Create(ctx, invoice); err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	if err := s.repos.Ledger.CreateEntries(ctx, invoiceLedgerEntries(invoice)); err != nil {
		return fmt.Errorf("failed to post invoice: %w", err)
	}
	if err := s.linkTracker(ctx, invoice, preserved); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id":  invoice.ID,
		"external_id": *invoice.ExternalID,
		"grand_total": invoice.GrandTotal.String(),
		"outstanding": invoice.OutstandingAmount.String(),
	}).Info("Created invoice from QuickBooks")
	return nil
}

// replaceInvoice cancels local and then, in one transaction, moves its
// payment allocations onto draft, removes it and inserts draft. When the
// second step fails the old invoice stays cancelled for inspection.
func (s *ReconciliationService) replaceInvoice(ctx context.Context, local, draft *entity.Invoice) error {
	tracker, err := s.repos.Trackers.GetByInvoiceID(ctx, local.ID)
	if err != nil {
		return fmt.Errorf("failed to load tracker for invoice %s: %w", local.ID, err)
	}
	if err := s.cancelInvoice(ctx, local); err != nil {
		return err
	}

	err = s.repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.removeInvoice(ctx, local, draft.ID); err != nil {
			return err
		}
		return s.persist(ctx, draft, tracker)
	})
	if err != nil {
		fatal := apperror.NewFatalIntegrityError("invoice "+local.ID.String()+" cancelled but not replaced", err)
		logger.LogError(s.logger, reconcileModule, "replaceInvoice", "replace after cancel failed", local.ID.String(), fatal)
		return fatal
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id":  local.ID,
		"replaced_by": draft.ID,
		"grand_total": local.GrandTotal.String(),
	}).Info("Replaced local invoice")
	return nil
}

// deleteInvoice cancels a posted invoice in one transaction and removes it
// in a second. Payment allocations move to successor when it is set and are
// dropped otherwise. Its tracker is detached, never deleted. When the
// second step fails the invoice stays cancelled for inspection.
func (s *ReconciliationService) deleteInvoice(ctx context.Context, invoice *entity.Invoice, successor uuid.UUID) error {
	if err := s.cancelInvoice(ctx, invoice); err != nil {
		return err
	}

	err := s.repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.removeInvoice(ctx, invoice, successor)
	})
	if err != nil {
		fatal := apperror.NewFatalIntegrityError("invoice "+invoice.ID.String()+" cancelled but not deleted", err)
		logger.LogError(s.logger, reconcileModule, "deleteInvoice", "delete after cancel failed", invoice.ID.String(), fatal)
		return fatal
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id":  invoice.ID,
		"grand_total": invoice.GrandTotal.String(),
	}).Info("Deleted local invoice")
	return nil
}

// cancelInvoice reverses the postings of a posted invoice and marks it
// cancelled
func (s *ReconciliationService) cancelInvoice(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.DocStatus != enum.DocStatusPosted {
		return nil
	}
	err := s.repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Ledger.CancelByVoucher(ctx, entity.VoucherTypeInvoice, invoice.ID); err != nil {
			return err
		}
		invoice.DocStatus = enum.DocStatusCancelled
		return s.repos.Invoices.Update(ctx, invoice)
	})
	if err != nil {
		invoice.DocStatus = enum.DocStatusPosted
		return fmt.Errorf("failed to cancel invoice %s: %w", invoice.ID, err)
	}
	return nil
}

// removeInvoice runs inside the caller's transaction
func (s *ReconciliationService) removeInvoice(ctx context.Context, invoice *entity.Invoice, successor uuid.UUID) error {
	if successor != uuid.Nil {
		if err := s.repos.Payments.ReassignInvoice(ctx, invoice.ID, successor); err != nil {
			return fmt.Errorf("failed to move allocations off invoice %s: %w", invoice.ID, err)
		}
		if err := s.repos.Ledger.ReassignAgainst(ctx, invoice.ID, successor); err != nil {
			return fmt.Errorf("failed to move payment postings off invoice %s: %w", invoice.ID, err)
		}
	}
	if err := s.repos.Trackers.DetachInvoice(ctx, invoice.ID); err != nil {
		return err
	}
	if err := s.repos.Ledger.DeleteByVoucher(ctx, entity.VoucherTypeInvoice, invoice.ID); err != nil {
		return err
	}
	return s.repos.Invoices.Delete(ctx, invoice.ID)
}

func (s *ReconciliationService) linkTracker(ctx context.Context, invoice *entity.Invoice, tracker *entity.ShipmentTracker) error {
	if tracker == nil && invoice.SalesOrder != "" {
		found, err := s.repos.Trackers.FindUninvoicedBySalesOrder(ctx, invoice.SalesOrder)
		if err != nil {
			return fmt.Errorf("failed to find tracker for %s: %w", invoice.SalesOrder, err)
		}
		tracker = found
	}
	if tracker == nil {
		return nil
	}

	tracker.InvoiceID = &invoice.ID
	if tracker.CustomerID == nil {
		tracker.CustomerID = &invoice.CustomerID
	}
	if tracker.Status == "" || tracker.Status == enum.TrackerStatusSalesOrderMade {
		tracker.Status = enum.TrackerStatusInvoiceSent
	}
	if err := s.repos.Trackers.Update(ctx, tracker); err != nil {
		return fmt.Errorf("failed to link tracker %s: %w", tracker.Name, err)
	}
	return nil
}
