package mapper

import (
	"context"
	"errors"
	"testing"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/sangkips/qbo-connector/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItemLookup struct {
	items map[string]entity.Item
	errOn string
}

func (f *fakeItemLookup) GetByExternalID(ctx context.Context, externalID string) (*entity.Item, error) {
	if externalID == f.errOn {
		return nil, errors.New("db down")
	}
	item, ok := f.items[externalID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func salesLine(itemID, qty, price, amount string) remote.Line {
	return remote.Line{
		DetailType: remote.DetailTypeSalesItem,
		Amount:     d(amount),
		SalesItemLineDetail: &remote.SalesItemLineDetail{
			ItemRef:   remote.Ref{Value: itemID},
			Qty:       d(qty),
			UnitPrice: d(price),
		},
	}
}

func newLookup() *fakeItemLookup {
	return &fakeItemLookup{items: map[string]entity.Item{
		"11": {Code: "WRISTBAND"},
		"12": {Code: "LANYARD"},
	}}
}

func TestMapInvoiceTotals(t *testing.T) {
	m := NewInvoiceMapper(newLookup(), logger.Discard())
	inv := &remote.Invoice{
		ID:           "42",
		DocNumber:    "SO-0001",
		TotalAmt:     d("100.00"),
		TxnTaxDetail: &remote.TxnTaxDetail{TotalTax: d("6.00")},
		Line: []remote.Line{
			salesLine("11", "3", "10.00", "30.00"),
			salesLine("12", "2", "32.00", "64.00"),
			{DetailType: remote.DetailTypeSubTotal, Amount: d("94.00")},
		},
	}

	out, err := m.MapInvoice(context.Background(), inv)
	require.NoError(t, err)

	require.Len(t, out.Items, 2)
	assert.Equal(t, "WRISTBAND", out.Items[0].ItemCode)
	assert.Equal(t, "SO-0001", out.Items[0].SalesOrder)
	assert.True(t, out.NetTotal.Equal(d("94.00")))
	assert.True(t, out.TaxTotal.Equal(d("6.00")))
	assert.True(t, out.GrandTotal.Equal(d("100.00")))
	assert.True(t, out.TotalQty.Equal(d("5")))
	assert.True(t, out.DiscountAmount.IsZero())
	assert.True(t, out.DiscountPercent.IsZero())
	assert.Equal(t, "USD", out.Currency)
	assert.True(t, out.ExchangeRate.Equal(d("1")))
}

func TestMapInvoiceSkipsUnresolvedLines(t *testing.T) {
	lookup := newLookup()
	lookup.errOn = "13"
	m := NewInvoiceMapper(lookup, logger.Discard())
	inv := &remote.Invoice{
		ID:       "42",
		TotalAmt: d("30.00"),
		Line: []remote.Line{
			salesLine("11", "3", "10.00", "30.00"),
			salesLine("99", "1", "5.00", "5.00"),
			salesLine("13", "1", "5.00", "5.00"),
			salesLine("", "1", "5.00", "5.00"),
		},
	}

	out, err := m.MapInvoice(context.Background(), inv)
	require.NoError(t, err)

	assert.Len(t, out.Items, 1)
	assert.ElementsMatch(t, []string{"99", "13"}, out.SkippedItemIDs)
	assert.True(t, out.NetTotal.Equal(d("30.00")))
}

func TestMapInvoiceDiscount(t *testing.T) {
	m := NewInvoiceMapper(newLookup(), logger.Discard())
	rate := d("1.25")
	inv := &remote.Invoice{
		TotalAmt:     d("90.00"),
		TxnTaxDetail: &remote.TxnTaxDetail{TotalTax: d("0")},
		CurrencyRef:  &remote.Ref{Value: "CAD"},
		ExchangeRate: &rate,
		Line: []remote.Line{
			salesLine("11", "10", "10.00", "100.00"),
			{
				DetailType:         remote.DetailTypeDiscount,
				Amount:             d("10.00"),
				DiscountLineDetail: &remote.DiscountLineDetail{PercentBased: true, DiscountPercent: d("10")},
			},
		},
	}

	out, err := m.MapInvoice(context.Background(), inv)
	require.NoError(t, err)

	assert.True(t, out.DiscountAmount.Equal(d("10.00")))
	assert.True(t, out.DiscountPercent.Equal(d("10")))
	require.NotNil(t, out.LineDiscountPercent)
	assert.True(t, out.EffectiveDiscountPercent().Equal(d("10")))
	assert.Equal(t, "CAD", out.Currency)
	assert.True(t, out.ExchangeRate.Equal(d("1.25")))
}

func TestMapInvoiceZeroNetTotal(t *testing.T) {
	m := NewInvoiceMapper(newLookup(), logger.Discard())
	inv := &remote.Invoice{TotalAmt: d("12.00"), Line: []remote.Line{salesLine("99", "1", "12.00", "12.00")}}

	out, err := m.MapInvoice(context.Background(), inv)
	require.NoError(t, err)

	assert.Empty(t, out.Items)
	assert.True(t, out.DiscountPercent.IsZero())
	assert.True(t, out.DiscountAmount.Equal(d("12.00")))
}

func TestDiscountPercent(t *testing.T) {
	assert.True(t, DiscountPercent(d("15.98"), d("94.00")).Equal(d("17")))
	assert.True(t, DiscountPercent(d("1"), d("3")).Equal(d("33.33")))
	assert.True(t, DiscountPercent(d("5"), decimal.Zero).IsZero())
}
