package mapper

import (
	"errors"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/shopspring/decimal"
)

// QuickBooks caps DocNumber at 21 characters.
const maxDocNumberLen = 21

var (
	ErrNoSyncableLines      = errors.New("no invoice lines reference a QuickBooks item")
	ErrCustomerNotInQBO     = errors.New("customer has no QuickBooks id")
	ErrPaymentMethodMissing = errors.New("mode of payment has no QuickBooks payment method")
)

// BuildInvoicePayload converts a local invoice into a QuickBooks create
// request. Lines whose item has no QuickBooks id are dropped; the item's
// list price wins over the line rate when one is set.
func BuildInvoicePayload(inv *entity.Invoice, customer *entity.Customer, items map[string]entity.Item) (*remote.Invoice, []string, error) {
	if customer == nil || customer.ExternalID == nil || *customer.ExternalID == "" {
		return nil, nil, ErrCustomerNotInQBO
	}

	var skipped []string
	payload := &remote.Invoice{
		CustomerRef: remote.Ref{Value: *customer.ExternalID},
		TxnDate:     inv.PostingDate.Format("2006-01-02"),
	}
	if inv.SalesOrder != "" && len(inv.SalesOrder) <= maxDocNumberLen {
		payload.DocNumber = inv.SalesOrder
	}

	for _, line := range inv.Items {
		item, ok := items[line.ItemCode]
		if !ok || item.ExternalID == nil || *item.ExternalID == "" {
			skipped = append(skipped, line.ItemCode)
			continue
		}

		unitPrice := line.Rate
		if item.PriceListRate.IsPositive() {
			unitPrice = item.PriceListRate
		}
		payload.Line = append(payload.Line, remote.Line{
			DetailType:  remote.DetailTypeSalesItem,
			Description: line.Description,
			Amount:      line.Qty.Mul(unitPrice).Round(2),
			SalesItemLineDetail: &remote.SalesItemLineDetail{
				ItemRef:   remote.Ref{Value: *item.ExternalID},
				Qty:       line.Qty,
				UnitPrice: unitPrice,
			},
		})
	}

	if len(payload.Line) == 0 {
		return nil, skipped, ErrNoSyncableLines
	}

	if inv.DiscountPercent.IsPositive() {
		payload.Line = append(payload.Line, remote.Line{
			DetailType: remote.DetailTypeDiscount,
			Amount:     inv.DiscountAmount,
			DiscountLineDetail: &remote.DiscountLineDetail{
				PercentBased:    true,
				DiscountPercent: inv.DiscountPercent,
			},
		})
	}

	return payload, skipped, nil
}

// PaymentSettings carries the account mapping a payment push needs
type PaymentSettings struct {
	DepositAccountID string
	PaymentMethods   map[string]string
}

// BuildPaymentPayload converts a local payment into a QuickBooks create
// request. invoiceExternalIDs maps local invoice id strings to their
// QuickBooks ids; references to unsynced invoices are dropped, and a
// payment with no linkable reference is sent as one unapplied line.
func BuildPaymentPayload(p *entity.Payment, customer *entity.Customer, invoiceExternalIDs map[string]string, settings PaymentSettings) (*remote.Payment, error) {
	if customer == nil || customer.ExternalID == nil || *customer.ExternalID == "" {
		return nil, ErrCustomerNotInQBO
	}

	payload := &remote.Payment{
		CustomerRef:   remote.Ref{Value: *customer.ExternalID},
		TotalAmt:      p.PaidAmount,
		TxnDate:       p.PostingDate.Format("2006-01-02"),
		PaymentRefNum: p.ReferenceNo,
	}

	if p.ModeOfPayment != "" {
		methodID, ok := settings.PaymentMethods[p.ModeOfPayment]
		if !ok {
			return nil, ErrPaymentMethodMissing
		}
		payload.PaymentMethodRef = &remote.Ref{Value: methodID}
	}
	if settings.DepositAccountID != "" {
		payload.DepositToAccountRef = &remote.Ref{Value: settings.DepositAccountID}
	}

	for _, ref := range p.References {
		externalID, ok := invoiceExternalIDs[ref.InvoiceID.String()]
		if !ok || externalID == "" {
			continue
		}
		payload.Line = append(payload.Line, remote.PaymentLine{
			Amount: ref.AllocatedAmount,
			LinkedTxn: []remote.LinkedTxn{
				{TxnID: externalID, TxnType: remote.TxnTypeInvoice},
			},
		})
	}

	if len(payload.Line) == 0 {
		payload.Line = []remote.PaymentLine{{Amount: p.PaidAmount}}
	}

	return payload, nil
}

// BuildCustomerPayload converts a customer into a QuickBooks create request
func BuildCustomerPayload(c *entity.Customer, exempt bool) *remote.Customer {
	payload := &remote.Customer{
		DisplayName: c.Name,
	}
	if link := c.OrganizationLink(); link.Organization != nil {
		payload.CompanyName = link.Organization.Name
	}
	if c.Email != nil && *c.Email != "" {
		payload.PrimaryEmailAddr = &remote.EmailAddress{Address: *c.Email}
	}
	if c.Phone != nil && *c.Phone != "" {
		payload.PrimaryPhone = &remote.PhoneNumber{FreeFormNumber: *c.Phone}
	}
	if c.Street != "" || c.City != "" || c.State != "" || c.ZipCode != "" {
		payload.BillAddr = &remote.Address{
			Line1:                  c.Street,
			City:                   c.City,
			CountrySubDivisionCode: c.State,
			PostalCode:             c.ZipCode,
			Country:                c.Country,
		}
	}

	taxable := !exempt
	payload.Taxable = &taxable
	if exempt && c.HasExemptionNumber() {
		payload.ResaleNum = *c.TaxExemptionNumber
	}
	return payload
}

// BuildItemUpdate builds a sparse item update carrying only the changed
// field. Exactly one of cost or price should be set.
func BuildItemUpdate(current *remote.Item, cost, price *decimal.Decimal) *remote.Item {
	return &remote.Item{
		ID:           current.ID,
		SyncToken:    current.SyncToken,
		Sparse:       true,
		PurchaseCost: cost,
		UnitPrice:    price,
	}
}
