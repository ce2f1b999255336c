package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer is an ERP customer. It belongs to at most one of a camp or an
// other organization; see OrganizationLink.
type Customer struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name                string          `gorm:"size:255;not null" json:"name"`
	Email               *string         `gorm:"size:255" json:"email,omitempty"`
	Phone               *string         `gorm:"size:50" json:"phone,omitempty"`
	Street              string          `gorm:"size:255" json:"street,omitempty"`
	City                string          `gorm:"size:100" json:"city,omitempty"`
	State               string          `gorm:"size:100" json:"state,omitempty"`
	ZipCode             string          `gorm:"size:20" json:"zip_code,omitempty"`
	Country             string          `gorm:"size:100" json:"country,omitempty"`
	TaxStatus           enum.TaxStatus  `gorm:"default:0" json:"tax_status"`
	TaxExemptionNumber  *string         `gorm:"size:100" json:"tax_exemption_number,omitempty"`
	BaseDiscount        decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"base_discount"`
	CampID              *uuid.UUID      `gorm:"type:uuid;index" json:"camp_id,omitempty"`
	OtherOrganizationID *uuid.UUID      `gorm:"type:uuid;index" json:"other_organization_id,omitempty"`
	ExternalID          *string         `gorm:"size:64;uniqueIndex" json:"external_id,omitempty"`
	SyncState           `gorm:"embedded"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`

	// Relationships
	Camp              *Organization `gorm:"foreignKey:CampID" json:"camp,omitempty"`
	OtherOrganization *Organization `gorm:"foreignKey:OtherOrganizationID" json:"other_organization,omitempty"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// OrganizationLinkKind enumerates the shapes a customer's organization
// link can take
type OrganizationLinkKind int

const (
	OrganizationLinkNone OrganizationLinkKind = iota
	OrganizationLinkCamp
	OrganizationLinkOther
	OrganizationLinkAmbiguous
)

// OrganizationLink is the resolved organization variant of a customer
type OrganizationLink struct {
	Kind         OrganizationLinkKind
	ID           uuid.UUID
	Organization *Organization
}

// OrganizationLink resolves which organization the customer belongs to.
// Both links set is reported as OrganizationLinkAmbiguous.
func (c *Customer) OrganizationLink() OrganizationLink {
	switch {
	case c.CampID != nil && c.OtherOrganizationID != nil:
		return OrganizationLink{Kind: OrganizationLinkAmbiguous}
	case c.CampID != nil:
		return OrganizationLink{Kind: OrganizationLinkCamp, ID: *c.CampID, Organization: c.Camp}
	case c.OtherOrganizationID != nil:
		return OrganizationLink{Kind: OrganizationLinkOther, ID: *c.OtherOrganizationID, Organization: c.OtherOrganization}
	default:
		return OrganizationLink{Kind: OrganizationLinkNone}
	}
}

// StateKey is the normalized key used for state tax lookups
func (c *Customer) StateKey() string {
	return strings.ToLower(strings.TrimSpace(c.State))
}

// HasExemptionNumber reports whether a non-blank exemption number is on file
func (c *Customer) HasExemptionNumber() bool {
	return c.TaxExemptionNumber != nil && strings.TrimSpace(*c.TaxExemptionNumber) != ""
}
