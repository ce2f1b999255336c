package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/sangkips/qbo-connector/internal/domain/repository"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/sangkips/qbo-connector/pkg/pagination"
	"github.com/sirupsen/logrus"
)

// ErrSyncSkipped is returned by a push that had nothing to do, e.g. a
// record flagged do-not-sync or already linked to QuickBooks
var ErrSyncSkipped = errors.New("sync skipped")

// Dispatcher pushes one local record to QuickBooks
type Dispatcher interface {
	Dispatch(ctx context.Context, ref entity.EntityRef) error
}

// RetryResult summarises a retry batch
type RetryResult struct {
	Kind      enum.EntityKind `json:"kind"`
	Attempted int             `json:"attempted"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
}

// SyncStatusService records where each record stands against QuickBooks
// and drives the operator retry workflow
type SyncStatusService struct {
	states     repository.SyncStateRepository
	dispatcher Dispatcher
	logger     *logrus.Logger
	now        func() time.Time
}

// NewSyncStatusService creates a new sync status service
func NewSyncStatusService(states repository.SyncStateRepository, logger *logrus.Logger) *SyncStatusService {
	return &SyncStatusService{
		states: states,
		logger: logger,
		now:    time.Now,
	}
}

// SetDispatcher wires the outbound dispatcher used by retries. The
// dispatcher itself reports status here, so it is set after construction.
func (s *SyncStatusService) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// CanTransition reports whether a record of kind may move from one status
// to another. Synced is final except for items, whose next cost or price
// change starts a new cycle.
func CanTransition(kind enum.EntityKind, from, to enum.SyncStatus) bool {
	switch {
	case from == to:
		return true
	case from == enum.SyncStatusPending || from.IsAdvisory():
		return true
	case from == enum.SyncStatusFailed:
		return to == enum.SyncStatusPending
	case from == enum.SyncStatusSynced:
		return kind == enum.EntityKindItem && to == enum.SyncStatusPending
	}
	return false
}

// SetStatus persists status with the current time. externalID is written
// when non-nil. Anything other than Synced is logged as a warning and the
// message is kept on the record for the operator.
func (s *SyncStatusService) SetStatus(ctx context.Context, ref entity.EntityRef, status enum.SyncStatus, externalID *string, message string) error {
	current, err := s.states.Get(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to load sync state for %s: %w", ref, err)
	}
	if current == nil {
		return apperror.NewNotFoundError(ref.String())
	}

	if !CanTransition(ref.Kind, current.SyncStatus, status) {
		return apperror.NewConflictError(fmt.Sprintf("%s cannot move from %s to %s", ref, current.SyncStatus, status))
	}

	now := s.now()
	state := entity.SyncState{
		SyncStatus:   status,
		SyncMessage:  message,
		LastSyncedAt: &now,
	}
	if err := s.states.Save(ctx, ref, state, externalID); err != nil {
		return fmt.Errorf("failed to save sync state for %s: %w", ref, err)
	}

	if status != enum.SyncStatusSynced {
		s.logger.WithFields(logrus.Fields{
			"ref":     ref.String(),
			"status":  status.String(),
			"message": message,
		}).Warn("Record is not synced with QuickBooks")
	}
	return nil
}

// Reopen moves a failed record, or a synced item, back to Pending
func (s *SyncStatusService) Reopen(ctx context.Context, ref entity.EntityRef) error {
	return s.SetStatus(ctx, ref, enum.SyncStatusPending, nil, "")
}

// RetryAllFailed re-dispatches every Failed record of kind. Each record is
// retried on its own; a failure is counted and logged and the batch goes on.
func (s *SyncStatusService) RetryAllFailed(ctx context.Context, kind enum.EntityKind) (*RetryResult, error) {
	if !kind.Valid() {
		return nil, apperror.NewBadRequestError("unknown entity kind " + kind.String())
	}
	if s.dispatcher == nil {
		return nil, errors.New("sync dispatcher is not configured")
	}

	refs, err := s.states.ListRefs(ctx, kind, enum.SyncStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed %s records: %w", kind, err)
	}

	result := &RetryResult{Kind: kind}
	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		result.Attempted++

		if err := s.Reopen(ctx, ref); err != nil {
			result.Failed++
			s.logger.WithField("ref", ref.String()).WithError(err).Error("Failed to reopen record for retry")
			continue
		}

		err := s.dispatcher.Dispatch(ctx, ref)
		switch {
		case err == nil:
			result.Succeeded++
		case errors.Is(err, ErrSyncSkipped):
			result.Skipped++
		default:
			result.Failed++
			s.logger.WithField("ref", ref.String()).WithError(err).Warn("Retry failed")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"kind":      kind,
		"attempted": result.Attempted,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
	}).Info("Retried failed records")
	return result, nil
}

// List returns the sync view of kind filtered by status
func (s *SyncStatusService) List(ctx context.Context, kind enum.EntityKind, status enum.SyncStatus, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.SyncRecord], error) {
	if !kind.Valid() {
		return nil, apperror.NewBadRequestError("unknown entity kind " + kind.String())
	}
	params.Validate()

	records, total, err := s.states.List(ctx, kind, status, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s sync states: %w", kind, err)
	}
	return pagination.NewPaginatedResult(records, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}
