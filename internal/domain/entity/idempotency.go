package entity

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey stores processed ERP hook requests so a resent hook does
// not enqueue a second push
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Key          string    `gorm:"uniqueIndex:idx_idem_subject_key;size:255;not null"`
	Subject      string    `gorm:"uniqueIndex:idx_idem_subject_key;size:255;not null"` // Operator who made the request
	Endpoint     string    `gorm:"size:255;not null"`                                  // e.g. "POST /erp/invoices/:id/submitted"
	ResponseCode int       `gorm:"not null"`
	ResponseBody string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for IdempotencyKey
func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// IsExpired checks if the idempotency key has expired
func (i *IdempotencyKey) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
