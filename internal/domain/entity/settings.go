package entity

import (
	"time"
)

// QuickBooksSettingsID is the primary key of the single settings row
const QuickBooksSettingsID = 1

// QuickBooksSettings holds the connected company and its OAuth tokens
type QuickBooksSettings struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	RealmID      string     `gorm:"size:64" json:"realm_id"`
	AccessToken  string     `gorm:"type:text" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	TokenExpiry  time.Time  `json:"token_expiry"`
	LastRefresh  *time.Time `json:"last_refresh,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the table name for the QuickBooksSettings model
func (QuickBooksSettings) TableName() string {
	return "quickbooks_settings"
}

// IsConnected reports whether a realm and token pair are on file
func (s *QuickBooksSettings) IsConnected() bool {
	return s != nil && s.RealmID != "" && s.AccessToken != ""
}

// StateTaxInfo records whether sales in a state are taxable
type StateTaxInfo struct {
	State   string `gorm:"size:100;primaryKey" json:"state"`
	Taxable bool   `gorm:"not null;default:true" json:"taxable"`
}

// TableName returns the table name for the StateTaxInfo model
func (StateTaxInfo) TableName() string {
	return "state_tax_info"
}
