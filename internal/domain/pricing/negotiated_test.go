package pricing

import (
	"testing"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyNegotiatedPrices(t *testing.T) {
	org := &entity.Organization{
		Name: "Camp Pine",
		NegotiatedPrices: []entity.NegotiatedPrice{
			{ItemCode: "WRISTBAND", Price: decimal.NewNullDecimal(d("0.45"))},
			{ItemCode: "STAFF-ACCT", Price: decimal.NullDecimal{}},
		},
	}
	lines := []OrderLine{
		{ItemCode: "WRISTBAND", Qty: d("1000"), Rate: d("0.60")},
		{ItemCode: "LANYARD", Qty: d("10"), Rate: d("2.00")},
	}

	result := ApplyNegotiatedPrices(lines, org)

	require.Len(t, result.Lines, 2)
	assert.True(t, result.Lines[0].Rate.Equal(d("0.45")))
	assert.True(t, result.Lines[1].Rate.Equal(d("2.00")))
	assert.True(t, result.IgnoreDiscount)
	assert.Len(t, result.Messages, 2)
	assert.True(t, lines[0].Rate.Equal(d("0.60")), "input lines are not mutated")
}

func TestApplyNegotiatedPricesUnchangedRate(t *testing.T) {
	org := &entity.Organization{
		NegotiatedPrices: []entity.NegotiatedPrice{
			{ItemCode: "WRISTBAND", Price: decimal.NewNullDecimal(d("0.45"))},
		},
	}
	result := ApplyNegotiatedPrices([]OrderLine{{ItemCode: "WRISTBAND", Qty: d("5"), Rate: d("0.45")}}, org)

	assert.False(t, result.IgnoreDiscount)
	assert.Empty(t, result.Messages)
}

func TestApplyNegotiatedPricesWithoutOrganization(t *testing.T) {
	result := ApplyNegotiatedPrices([]OrderLine{{ItemCode: "A", Qty: d("1"), Rate: d("1")}}, nil)
	assert.False(t, result.IgnoreDiscount)
	assert.Len(t, result.Lines, 1)
}

func TestTotals(t *testing.T) {
	lines := []OrderLine{
		{ItemCode: "A", Qty: d("3"), Rate: d("10.00")},
		{ItemCode: "B", Qty: d("2"), Rate: d("32.00")},
	}
	assert.True(t, TotalQty(lines).Equal(d("5")))
	assert.True(t, NetTotal(lines).Equal(d("94.00")))
}
