package pricing

import (
	"fmt"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// OrderLine is one priced line on an order being saved
type OrderLine struct {
	ItemCode string          `json:"item_code"`
	Qty      decimal.Decimal `json:"qty"`
	Rate     decimal.Decimal `json:"rate"`
}

// Amount is qty times rate, rounded to cents
func (l OrderLine) Amount() decimal.Decimal {
	return l.Qty.Mul(l.Rate).Round(2)
}

// NegotiatedResult is the outcome of applying organization prices
type NegotiatedResult struct {
	Lines          []OrderLine
	IgnoreDiscount bool
	Messages       []string
}

// ApplyNegotiatedPrices sets each line's rate to the organization's
// negotiated price for that item. Any rate change makes the order ignore
// percentage discounts. A negotiated item without a price is reported and
// left alone.
func ApplyNegotiatedPrices(lines []OrderLine, org *entity.Organization) NegotiatedResult {
	result := NegotiatedResult{Lines: append([]OrderLine(nil), lines...)}
	if org == nil {
		return result
	}

	for _, np := range org.NegotiatedPrices {
		if !np.Price.Valid {
			result.Messages = append(result.Messages,
				fmt.Sprintf("%s has a negotiated %s but no negotiated price", org.Name, np.ItemCode))
			continue
		}
		for i := range result.Lines {
			line := &result.Lines[i]
			if line.ItemCode != np.ItemCode || line.Rate.Equal(np.Price.Decimal) {
				continue
			}
			line.Rate = np.Price.Decimal
			result.IgnoreDiscount = true
			result.Messages = append(result.Messages,
				fmt.Sprintf("%s price changed to the negotiated price: $%s", line.ItemCode, np.Price.Decimal.StringFixed(2)))
		}
	}
	return result
}

// TotalQty sums line quantities
func TotalQty(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Qty)
	}
	return total
}

// NetTotal sums line amounts
func NetTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount())
	}
	return total
}
