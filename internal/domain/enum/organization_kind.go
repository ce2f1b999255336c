package enum

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// OrganizationKind distinguishes camps from other customer organizations
type OrganizationKind string

const (
	OrganizationKindCamp  OrganizationKind = "camp"
	OrganizationKindOther OrganizationKind = "other_organization"
)

func (k OrganizationKind) String() string {
	return string(k)
}

func (k OrganizationKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(k))
}

func (k *OrganizationKind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*k = OrganizationKind(str)
	return nil
}

func (k OrganizationKind) Value() (driver.Value, error) {
	return string(k), nil
}

func (k *OrganizationKind) Scan(value interface{}) error {
	if value == nil {
		*k = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*k = OrganizationKind(v)
	case []byte:
		*k = OrganizationKind(v)
	default:
		return errors.New("failed to scan OrganizationKind")
	}
	return nil
}
