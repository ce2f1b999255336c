package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SyncStatus tracks where a local record stands relative to QuickBooks
type SyncStatus int

const (
	SyncStatusPending             SyncStatus = 0
	SyncStatusSynced              SyncStatus = 1
	SyncStatusFailed              SyncStatus = 2
	SyncStatusMissingLink         SyncStatus = 3
	SyncStatusTaxPending          SyncStatus = 4
	SyncStatusMissingTaxExemption SyncStatus = 5
)

var syncStatusNames = [...]string{
	"Pending",
	"Synced",
	"Failed",
	"Missing-Link",
	"Tax-Pending",
	"Missing-Tax-Exemption",
}

func (s SyncStatus) String() string {
	if int(s) < 0 || int(s) >= len(syncStatusNames) {
		return "Pending"
	}
	return syncStatusNames[s]
}

// IsAdvisory reports whether the status flags a data problem the operator
// must fix locally before the record can sync.
func (s SyncStatus) IsAdvisory() bool {
	return s == SyncStatusMissingLink || s == SyncStatusTaxPending || s == SyncStatusMissingTaxExemption
}

// ParseSyncStatus accepts the display name, e.g. "Failed" or "Missing-Link".
func ParseSyncStatus(str string) (SyncStatus, error) {
	for i, name := range syncStatusNames {
		if name == str {
			return SyncStatus(i), nil
		}
	}
	return SyncStatusPending, fmt.Errorf("unknown sync status %q", str)
}

func (s SyncStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SyncStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = SyncStatus(i)
		return nil
	}
	parsed, err := ParseSyncStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s SyncStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *SyncStatus) Scan(value interface{}) error {
	if value == nil {
		*s = SyncStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = SyncStatus(v)
	case int32:
		*s = SyncStatus(v)
	case int:
		*s = SyncStatus(v)
	}
	return nil
}
