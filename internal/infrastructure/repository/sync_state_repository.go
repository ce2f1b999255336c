package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	domainRepo "github.com/sangkips/qbo-connector/internal/domain/repository"
	"github.com/sangkips/qbo-connector/pkg/pagination"
	"gorm.io/gorm"
)

// syncTable locates the sync columns of one entity kind
type syncTable struct {
	name string
	key  string
}

var syncTables = map[enum.EntityKind]syncTable{
	enum.EntityKindInvoice:  {name: entity.Invoice{}.TableName(), key: "id"},
	enum.EntityKindPayment:  {name: entity.Payment{}.TableName(), key: "id"},
	enum.EntityKindCustomer: {name: entity.Customer{}.TableName(), key: "id"},
	enum.EntityKindItem:     {name: entity.Item{}.TableName(), key: "code"},
}

func tableFor(kind enum.EntityKind) (syncTable, error) {
	t, ok := syncTables[kind]
	if !ok {
		return syncTable{}, fmt.Errorf("unsupported entity kind %q", kind)
	}
	return t, nil
}

type syncRow struct {
	Key          string
	ExternalID   *string
	SyncStatus   enum.SyncStatus
	SyncMessage  string
	LastSyncedAt *time.Time
}

func (r syncRow) toRecord(kind enum.EntityKind) entity.SyncRecord {
	return entity.SyncRecord{
		Ref:        entity.EntityRef{Kind: kind, ID: r.Key},
		ExternalID: r.ExternalID,
		SyncState: entity.SyncState{
			SyncStatus:   r.SyncStatus,
			SyncMessage:  r.SyncMessage,
			LastSyncedAt: r.LastSyncedAt,
		},
	}
}

type syncStateRepository struct {
	db *gorm.DB
}

// NewSyncStateRepository creates a repository over the sync columns of
// invoices, payments, customers and items
func NewSyncStateRepository(db *gorm.DB) domainRepo.SyncStateRepository {
	return &syncStateRepository{db: db}
}

func (r *syncStateRepository) selectRows(ctx context.Context, t syncTable) *gorm.DB {
	return dbFrom(ctx, r.db).
		Table(t.name).
		Select(t.key + "::text AS key, external_id, sync_status, sync_message, last_synced_at")
}

func (r *syncStateRepository) Get(ctx context.Context, ref entity.EntityRef) (*entity.SyncRecord, error) {
	t, err := tableFor(ref.Kind)
	if err != nil {
		return nil, err
	}

	var row syncRow
	err = r.selectRows(ctx, t).Where(t.key+" = ?", ref.ID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record := row.toRecord(ref.Kind)
	return &record, nil
}

func (r *syncStateRepository) Save(ctx context.Context, ref entity.EntityRef, state entity.SyncState, externalID *string) error {
	t, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"sync_status":    state.SyncStatus,
		"sync_message":   state.SyncMessage,
		"last_synced_at": state.LastSyncedAt,
	}
	if externalID != nil {
		updates["external_id"] = *externalID
	}

	result := dbFrom(ctx, r.db).Table(t.name).Where(t.key+" = ?", ref.ID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *syncStateRepository) ListRefs(ctx context.Context, kind enum.EntityKind, status enum.SyncStatus) ([]entity.EntityRef, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var keys []string
	err = dbFrom(ctx, r.db).
		Table(t.name).
		Where("sync_status = ?", status).
		Order(t.key+" ASC").
		Pluck(t.key+"::text", &keys).Error
	if err != nil {
		return nil, err
	}

	refs := make([]entity.EntityRef, 0, len(keys))
	for _, key := range keys {
		refs = append(refs, entity.EntityRef{Kind: kind, ID: key})
	}
	return refs, nil
}

func (r *syncStateRepository) List(ctx context.Context, kind enum.EntityKind, status enum.SyncStatus, params *pagination.PaginationParams) ([]entity.SyncRecord, int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	query := dbFrom(ctx, r.db).Table(t.name).Where("sync_status = ?", status)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	var rows []syncRow
	err = r.selectRows(ctx, t).
		Where("sync_status = ?", status).
		Offset(params.Offset()).Limit(params.PerPage).
		Order("last_synced_at DESC NULLS LAST, " + t.key + " ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	records := make([]entity.SyncRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord(kind))
	}
	return records, total, nil
}
