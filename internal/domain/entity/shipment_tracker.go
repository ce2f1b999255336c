package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"gorm.io/gorm"
)

// ShipmentTracker follows one sales order through invoicing and payment.
// Invoices and payments are linked to it and detached, never deleted with it.
type ShipmentTracker struct {
	ID         uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	Name       string             `gorm:"size:140;not null" json:"name"`
	SalesOrder string             `gorm:"size:140;not null;index" json:"sales_order"`
	CustomerID *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	InvoiceID  *uuid.UUID         `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	PaymentID  *uuid.UUID         `gorm:"type:uuid;index" json:"payment_id,omitempty"`
	Status     enum.TrackerStatus `gorm:"size:40;not null" json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new tracker
func (t *ShipmentTracker) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ShipmentTracker model
func (ShipmentTracker) TableName() string {
	return "shipment_trackers"
}
