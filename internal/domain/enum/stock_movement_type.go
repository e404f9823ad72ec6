package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// StockMovementType is the direction of a stock level change
type StockMovementType int

const (
	StockMovementOut StockMovementType = 0
	StockMovementIn  StockMovementType = 1
)

func (t StockMovementType) String() string {
	if t == StockMovementIn {
		return "IN"
	}
	return "OUT"
}

func (t StockMovementType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *StockMovementType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = StockMovementType(i)
		return nil
	}
	if str == "IN" {
		*t = StockMovementIn
	} else {
		*t = StockMovementOut
	}
	return nil
}

func (t StockMovementType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *StockMovementType) Scan(value interface{}) error {
	if value == nil {
		*t = StockMovementOut
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = StockMovementType(v)
	case int:
		*t = StockMovementType(v)
	}
	return nil
}
