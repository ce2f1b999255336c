package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// DocStatus is the posting state of an invoice or payment
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusPosted    DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

func (s DocStatus) String() string {
	names := [...]string{"Draft", "Posted", "Cancelled"}
	if int(s) < 0 || int(s) >= len(names) {
		return "Draft"
	}
	return names[s]
}

func (s DocStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *DocStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = DocStatus(i)
		return nil
	}
	switch str {
	case "Draft":
		*s = DocStatusDraft
	case "Posted":
		*s = DocStatusPosted
	case "Cancelled":
		*s = DocStatusCancelled
	}
	return nil
}

func (s DocStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *DocStatus) Scan(value interface{}) error {
	if value == nil {
		*s = DocStatusDraft
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = DocStatus(v)
	case int:
		*s = DocStatus(v)
	}
	return nil
}
