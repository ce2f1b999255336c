package pricing

import (
	"errors"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
)

// ErrUnknownState is returned by strict lookups for a state with no tax row.
var ErrUnknownState = errors.New("state has no tax information")

// TaxLookupPolicy selects how an unknown customer state is treated.
type TaxLookupPolicy int

const (
	// Strict fails on an unknown state. Used when pricing orders.
	Strict TaxLookupPolicy = iota
	// Advisory treats an unknown state as taxable. Used for read-only hints.
	Advisory
)

// StateTaxTable maps a lower-cased state name to its taxable flag.
type StateTaxTable map[string]bool

// NewStateTaxTable builds a lookup table from stored rows.
func NewStateTaxTable(rows []entity.StateTaxInfo) StateTaxTable {
	table := make(StateTaxTable, len(rows))
	for _, row := range rows {
		c := entity.Customer{State: row.State}
		table[c.StateKey()] = row.Taxable
	}
	return table
}

// IsTaxExempt reports whether sales to the customer carry no sales tax:
// the customer is Exempt or their state is not taxable.
func IsTaxExempt(customer *entity.Customer, table StateTaxTable, policy TaxLookupPolicy) (bool, error) {
	if customer.TaxStatus == enum.TaxStatusExempt {
		return true, nil
	}

	taxable, ok := table[customer.StateKey()]
	if !ok {
		if policy == Strict {
			return false, ErrUnknownState
		}
		return false, nil
	}
	return !taxable, nil
}

// TaxTemplateFor maps an item tax category to the ERP sales tax template.
func TaxTemplateFor(category enum.TaxCategory) string {
	switch category {
	case enum.TaxCategoryNotTaxable:
		return "Not Taxable"
	default:
		return "Taxable"
	}
}
