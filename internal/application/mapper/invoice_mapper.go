// Package mapper translates between QuickBooks entity shapes and local
// records.
package mapper

import (
	"context"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultCurrency = "USD"

var hundred = decimal.NewFromInt(100)

// ItemLookup resolves a QuickBooks item id to the local item. A nil item
// with a nil error means the item is unknown locally.
type ItemLookup interface {
	GetByExternalID(ctx context.Context, externalID string) (*entity.Item, error)
}

// MappedInvoice is a remote invoice expressed in local terms
type MappedInvoice struct {
	Items           []entity.InvoiceItem
	TotalQty        decimal.Decimal
	NetTotal        decimal.Decimal
	TaxTotal        decimal.Decimal
	GrandTotal      decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountPercent decimal.Decimal
	// LineDiscountPercent is set when the remote invoice carries a
	// percent-based discount line
	LineDiscountPercent *decimal.Decimal
	Balance             decimal.Decimal
	Currency            string
	ExchangeRate        decimal.Decimal
	// SkippedItemIDs lists remote item ids that could not be resolved
	SkippedItemIDs []string
}

// InvoiceMapper maps remote invoices onto local invoice lines
type InvoiceMapper struct {
	items  ItemLookup
	logger *logrus.Logger
}

// NewInvoiceMapper creates a new invoice mapper
func NewInvoiceMapper(items ItemLookup, logger *logrus.Logger) *InvoiceMapper {
	return &InvoiceMapper{items: items, logger: logger}
}

// MapInvoice keeps only sales item lines whose item resolves locally and
// derives the local totals from them. Unresolved lines are logged and
// skipped rather than failing the whole invoice.
func (m *InvoiceMapper) MapInvoice(ctx context.Context, inv *remote.Invoice) (*MappedInvoice, error) {
	out := &MappedInvoice{
		TotalQty:     decimal.Zero,
		NetTotal:     decimal.Zero,
		TaxTotal:     inv.TotalTax(),
		GrandTotal:   inv.TotalAmt,
		Balance:      inv.Balance,
		Currency:     defaultCurrency,
		ExchangeRate: decimal.NewFromInt(1),
	}
	if inv.CurrencyRef != nil && inv.CurrencyRef.Value != "" {
		out.Currency = inv.CurrencyRef.Value
	}
	if inv.ExchangeRate != nil && inv.ExchangeRate.IsPositive() {
		out.ExchangeRate = *inv.ExchangeRate
	}

	for idx, line := range inv.Line {
		if line.DetailType == remote.DetailTypeDiscount && line.DiscountLineDetail != nil &&
			line.DiscountLineDetail.PercentBased {
			pct := line.DiscountLineDetail.DiscountPercent
			out.LineDiscountPercent = &pct
			continue
		}
		if line.DetailType != remote.DetailTypeSalesItem || line.SalesItemLineDetail == nil {
			continue
		}

		detail := line.SalesItemLineDetail
		itemID := detail.ItemRef.Value
		if itemID == "" {
			continue
		}

		item, err := m.items.GetByExternalID(ctx, itemID)
		if err != nil {
			m.logger.WithFields(logrus.Fields{
				"invoice_id": inv.ID,
				"item_id":    itemID,
			}).WithError(err).Error("item lookup failed, skipping line")
			out.SkippedItemIDs = append(out.SkippedItemIDs, itemID)
			continue
		}
		if item == nil {
			m.logger.WithFields(logrus.Fields{
				"invoice_id": inv.ID,
				"item_id":    itemID,
			}).Warn("skipping unknown QuickBooks item")
			out.SkippedItemIDs = append(out.SkippedItemIDs, itemID)
			continue
		}

		out.Items = append(out.Items, entity.InvoiceItem{
			Idx:         idx + 1,
			ItemCode:    item.Code,
			Description: line.Description,
			Qty:         detail.Qty,
			Rate:        detail.UnitPrice,
			Amount:      line.Amount,
			SalesOrder:  inv.DocNumber,
		})
		out.TotalQty = out.TotalQty.Add(detail.Qty)
		out.NetTotal = out.NetTotal.Add(line.Amount)
	}

	out.DiscountAmount = out.NetTotal.Sub(out.GrandTotal.Sub(out.TaxTotal)).Abs()
	out.DiscountPercent = DiscountPercent(out.DiscountAmount, out.NetTotal)

	return out, nil
}

// DiscountPercent is amount as a percentage of net, rounded to two places.
// A zero net total yields zero.
func DiscountPercent(amount, net decimal.Decimal) decimal.Decimal {
	if net.IsZero() {
		return decimal.Zero
	}
	return amount.Div(net).Mul(hundred).Round(2)
}

// EffectiveDiscountPercent prefers the remote percent-based discount line
// over the derived percentage.
func (m *MappedInvoice) EffectiveDiscountPercent() decimal.Decimal {
	if m.LineDiscountPercent != nil {
		return *m.LineDiscountPercent
	}
	return m.DiscountPercent
}
