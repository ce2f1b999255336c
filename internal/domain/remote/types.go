// Package remote holds the QuickBooks Online v3 entity shapes exchanged
// with the accounting API and its webhooks.
package remote

import (
	"github.com/shopspring/decimal"
)

func init() {
	// QBO rejects quoted amounts on create/update.
	decimal.MarshalJSONWithoutQuotes = true
}

// Line detail types
const (
	DetailTypeSalesItem = "SalesItemLineDetail"
	DetailTypeDiscount  = "DiscountLineDetail"
	DetailTypeSubTotal  = "SubTotalLineDetail"

	TxnTypeInvoice = "Invoice"
)

// Ref is a QBO reference to another entity
type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

type Invoice struct {
	ID           string           `json:"Id,omitempty"`
	SyncToken    string           `json:"SyncToken,omitempty"`
	DocNumber    string           `json:"DocNumber,omitempty"`
	TxnDate      string           `json:"TxnDate,omitempty"`
	CustomerRef  Ref              `json:"CustomerRef"`
	Line         []Line           `json:"Line"`
	TotalAmt     decimal.Decimal  `json:"TotalAmt,omitzero"`
	TxnTaxDetail *TxnTaxDetail    `json:"TxnTaxDetail,omitempty"`
	CurrencyRef  *Ref             `json:"CurrencyRef,omitempty"`
	ExchangeRate *decimal.Decimal `json:"ExchangeRate,omitempty"`
	Balance      decimal.Decimal  `json:"Balance,omitzero"`
	PrivateNote  string           `json:"PrivateNote,omitempty"`
	MetaData     *MetaData        `json:"MetaData,omitempty"`
}

// TotalTax returns the invoice tax total, zero when absent
func (i *Invoice) TotalTax() decimal.Decimal {
	if i.TxnTaxDetail == nil {
		return decimal.Zero
	}
	return i.TxnTaxDetail.TotalTax
}

type Line struct {
	ID                  string               `json:"Id,omitempty"`
	LineNum             int                  `json:"LineNum,omitempty"`
	Description         string               `json:"Description,omitempty"`
	Amount              decimal.Decimal      `json:"Amount"`
	DetailType          string               `json:"DetailType"`
	SalesItemLineDetail *SalesItemLineDetail `json:"SalesItemLineDetail,omitempty"`
	DiscountLineDetail  *DiscountLineDetail  `json:"DiscountLineDetail,omitempty"`
}

type SalesItemLineDetail struct {
	ItemRef    Ref             `json:"ItemRef"`
	Qty        decimal.Decimal `json:"Qty"`
	UnitPrice  decimal.Decimal `json:"UnitPrice"`
	TaxCodeRef *Ref            `json:"TaxCodeRef,omitempty"`
}

type DiscountLineDetail struct {
	PercentBased    bool            `json:"PercentBased"`
	DiscountPercent decimal.Decimal `json:"DiscountPercent,omitzero"`
}

type TxnTaxDetail struct {
	TotalTax decimal.Decimal `json:"TotalTax"`
}

type MetaData struct {
	CreateTime      string `json:"CreateTime,omitempty"`
	LastUpdatedTime string `json:"LastUpdatedTime,omitempty"`
}

type Payment struct {
	ID                  string          `json:"Id,omitempty"`
	SyncToken           string          `json:"SyncToken,omitempty"`
	TxnDate             string          `json:"TxnDate,omitempty"`
	CustomerRef         Ref             `json:"CustomerRef"`
	TotalAmt            decimal.Decimal `json:"TotalAmt"`
	PaymentRefNum       string          `json:"PaymentRefNum,omitempty"`
	PaymentMethodRef    *Ref            `json:"PaymentMethodRef,omitempty"`
	DepositToAccountRef *Ref            `json:"DepositToAccountRef,omitempty"`
	Line                []PaymentLine   `json:"Line,omitempty"`
}

type PaymentLine struct {
	Amount    decimal.Decimal `json:"Amount"`
	LinkedTxn []LinkedTxn     `json:"LinkedTxn,omitempty"`
}

type LinkedTxn struct {
	TxnID   string `json:"TxnId"`
	TxnType string `json:"TxnType"`
}

type Customer struct {
	ID               string        `json:"Id,omitempty"`
	SyncToken        string        `json:"SyncToken,omitempty"`
	DisplayName      string        `json:"DisplayName"`
	CompanyName      string        `json:"CompanyName,omitempty"`
	PrimaryEmailAddr *EmailAddress `json:"PrimaryEmailAddr,omitempty"`
	PrimaryPhone     *PhoneNumber  `json:"PrimaryPhone,omitempty"`
	BillAddr         *Address      `json:"BillAddr,omitempty"`
	Taxable          *bool         `json:"Taxable,omitempty"`
	ResaleNum        string        `json:"ResaleNum,omitempty"`
}

type EmailAddress struct {
	Address string `json:"Address"`
}

type PhoneNumber struct {
	FreeFormNumber string `json:"FreeFormNumber"`
}

type Address struct {
	Line1                  string `json:"Line1,omitempty"`
	City                   string `json:"City,omitempty"`
	CountrySubDivisionCode string `json:"CountrySubDivisionCode,omitempty"`
	PostalCode             string `json:"PostalCode,omitempty"`
	Country                string `json:"Country,omitempty"`
}

// Item is the subset of the QBO item used for cost and price updates
type Item struct {
	ID           string           `json:"Id"`
	SyncToken    string           `json:"SyncToken"`
	Name         string           `json:"Name,omitempty"`
	Sparse       bool             `json:"sparse,omitempty"`
	UnitPrice    *decimal.Decimal `json:"UnitPrice,omitempty"`
	PurchaseCost *decimal.Decimal `json:"PurchaseCost,omitempty"`
}

// Fault is the error body QBO returns alongside 4xx/5xx statuses
type Fault struct {
	Fault struct {
		Type  string `json:"type"`
		Error []struct {
			Message string `json:"Message"`
			Detail  string `json:"Detail"`
			Code    string `json:"code"`
		} `json:"Error"`
	} `json:"Fault"`
}

// Message flattens the fault into one line for sync messages
func (f *Fault) Message() string {
	if len(f.Fault.Error) == 0 {
		return f.Fault.Type
	}
	e := f.Fault.Error[0]
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}
