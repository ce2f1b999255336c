package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Organization is a camp or other organization that customers belong to.
// It carries negotiated item prices that override list pricing on orders.
type Organization struct {
	ID             uuid.UUID             `gorm:"type:uuid;primary_key" json:"id"`
	Kind           enum.OrganizationKind `gorm:"size:32;not null;index" json:"kind"`
	Name           string                `gorm:"size:255;not null" json:"name"`
	ShippingStreet string                `gorm:"size:255" json:"shipping_street,omitempty"`
	ShippingCity   string                `gorm:"size:100" json:"shipping_city,omitempty"`
	ShippingState  string                `gorm:"size:100" json:"shipping_state,omitempty"`
	ShippingZip    string                `gorm:"size:20" json:"shipping_zip,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`

	NegotiatedPrices []NegotiatedPrice `gorm:"foreignKey:OrganizationID" json:"negotiated_prices,omitempty"`
}

// BeforeCreate generates a UUID before creating a new organization
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Organization model
func (Organization) TableName() string {
	return "organizations"
}

// NegotiatedPrice is an organization's agreed price for one item. A null
// price means the item is negotiated but no price has been entered yet.
type NegotiatedPrice struct {
	ID             uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	OrganizationID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_org_item" json:"organization_id"`
	ItemCode       string              `gorm:"size:140;not null;uniqueIndex:idx_org_item" json:"item_code"`
	Price          decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"price"`
}

// BeforeCreate generates a UUID before creating a new negotiated price
func (n *NegotiatedPrice) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the NegotiatedPrice model
func (NegotiatedPrice) TableName() string {
	return "negotiated_prices"
}
