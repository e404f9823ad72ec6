package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// SaleStatus represents the settlement state of a sale
type SaleStatus int

const (
	SaleStatusPaid          SaleStatus = 0
	SaleStatusCreditPending SaleStatus = 1
	SaleStatusVoid          SaleStatus = 2
)

func (s SaleStatus) String() string {
	names := [...]string{"PAID", "CREDIT_PENDING", "VOID"}
	if int(s) < 0 || int(s) >= len(names) {
		return "PAID"
	}
	return names[s]
}

func (s SaleStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SaleStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = SaleStatus(i)
		return nil
	}
	parsed, ok := ParseSaleStatus(str)
	if ok {
		*s = parsed
	}
	return nil
}

// ParseSaleStatus maps a status name to its value
func ParseSaleStatus(str string) (SaleStatus, bool) {
	switch str {
	case "PAID":
		return SaleStatusPaid, true
	case "CREDIT_PENDING":
		return SaleStatusCreditPending, true
	case "VOID":
		return SaleStatusVoid, true
	}
	return SaleStatusPaid, false
}

func (s SaleStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *SaleStatus) Scan(value interface{}) error {
	if value == nil {
		*s = SaleStatusPaid
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = SaleStatus(v)
	case int:
		*s = SaleStatus(v)
	}
	return nil
}
