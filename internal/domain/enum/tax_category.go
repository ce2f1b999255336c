package enum

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// TaxCategory marks whether an item attracts sales tax
type TaxCategory string

const (
	TaxCategoryTaxable    TaxCategory = "Taxable"
	TaxCategoryNotTaxable TaxCategory = "Not-Taxable"
)

func (t TaxCategory) String() string {
	return string(t)
}

func (t TaxCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t *TaxCategory) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*t = TaxCategory(str)
	return nil
}

func (t TaxCategory) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *TaxCategory) Scan(value interface{}) error {
	if value == nil {
		*t = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*t = TaxCategory(v)
	case []byte:
		*t = TaxCategory(v)
	default:
		return errors.New("failed to scan TaxCategory")
	}
	return nil
}
