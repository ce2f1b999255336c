package entity

import (
	"time"

	"github.com/sangkips/qbo-connector/internal/domain/enum"
)

// SyncState is embedded in every record that is pushed to or pulled from
// QuickBooks
type SyncState struct {
	SyncStatus   enum.SyncStatus `gorm:"default:0;index" json:"sync_status"`
	SyncMessage  string          `gorm:"type:text" json:"sync_message,omitempty"`
	LastSyncedAt *time.Time      `json:"last_synced_at,omitempty"`
}

// EntityRef identifies a syncable record. ID is the uuid string for
// invoices, payments and customers, and the item code for items.
type EntityRef struct {
	Kind enum.EntityKind `json:"kind"`
	ID   string          `json:"id"`
}

func (r EntityRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

// SyncRecord is the read model behind the operator sync views
type SyncRecord struct {
	Ref        EntityRef `json:"ref"`
	ExternalID *string   `json:"external_id,omitempty"`
	SyncState
}
