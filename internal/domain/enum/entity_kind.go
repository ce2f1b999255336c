package enum

// EntityKind names a record type that carries a sync status
type EntityKind string

const (
	EntityKindInvoice  EntityKind = "invoice"
	EntityKindPayment  EntityKind = "payment"
	EntityKindCustomer EntityKind = "customer"
	EntityKindItem     EntityKind = "item"
)

func (k EntityKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known kinds.
func (k EntityKind) Valid() bool {
	switch k {
	case EntityKindInvoice, EntityKindPayment, EntityKindCustomer, EntityKindItem:
		return true
	}
	return false
}

// ParseEntityKind accepts singular or plural names from URLs.
func ParseEntityKind(s string) (EntityKind, bool) {
	switch s {
	case "invoice", "invoices":
		return EntityKindInvoice, true
	case "payment", "payments":
		return EntityKindPayment, true
	case "customer", "customers":
		return EntityKindCustomer, true
	case "item", "items":
		return EntityKindItem, true
	}
	return "", false
}
