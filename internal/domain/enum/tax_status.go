package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// TaxStatus is a customer's sales tax standing
type TaxStatus int

const (
	TaxStatusPending TaxStatus = 0
	TaxStatusTaxed   TaxStatus = 1
	TaxStatusExempt  TaxStatus = 2
)

func (t TaxStatus) String() string {
	names := [...]string{"Pending", "Taxed", "Exempt"}
	if int(t) < 0 || int(t) >= len(names) {
		return "Pending"
	}
	return names[t]
}

func (t TaxStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TaxStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = TaxStatus(i)
		return nil
	}
	switch str {
	case "Pending":
		*t = TaxStatusPending
	case "Taxed":
		*t = TaxStatusTaxed
	case "Exempt":
		*t = TaxStatusExempt
	}
	return nil
}

func (t TaxStatus) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *TaxStatus) Scan(value interface{}) error {
	if value == nil {
		*t = TaxStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = TaxStatus(v)
	case int:
		*t = TaxStatus(v)
	}
	return nil
}
