package repository

import (
	"context"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/sangkips/qbo-connector/pkg/pagination"
)

// SyncStateRepository reads and writes the sync columns shared by every
// syncable table
type SyncStateRepository interface {
	// Get returns nil when the record does not exist
	Get(ctx context.Context, ref entity.EntityRef) (*entity.SyncRecord, error)
	// Save writes state, and externalID when non-nil
	Save(ctx context.Context, ref entity.EntityRef, state entity.SyncState, externalID *string) error
	// ListRefs returns every record of kind in status
	ListRefs(ctx context.Context, kind enum.EntityKind, status enum.SyncStatus) ([]entity.EntityRef, error)
	List(ctx context.Context, kind enum.EntityKind, status enum.SyncStatus, params *pagination.PaginationParams) ([]entity.SyncRecord, int64, error)
}
