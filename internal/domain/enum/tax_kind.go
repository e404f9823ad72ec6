package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// TaxKind classifies a tax rate for reporting
type TaxKind int

const (
	TaxKindVAT         TaxKind = 0
	TaxKindConsumption TaxKind = 1
	TaxKindOther       TaxKind = 2
)

func (t TaxKind) String() string {
	names := [...]string{"VAT", "CONSUMPTION", "OTHER"}
	if int(t) < 0 || int(t) >= len(names) {
		return "OTHER"
	}
	return names[t]
}

func (t TaxKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TaxKind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = TaxKind(i)
		return nil
	}
	switch str {
	case "VAT":
		*t = TaxKindVAT
	case "CONSUMPTION":
		*t = TaxKindConsumption
	default:
		*t = TaxKindOther
	}
	return nil
}

func (t TaxKind) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *TaxKind) Scan(value interface{}) error {
	if value == nil {
		*t = TaxKindVAT
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = TaxKind(v)
	case int:
		*t = TaxKind(v)
	}
	return nil
}
