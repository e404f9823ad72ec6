package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// ShiftStatus represents whether a cashier session is still accepting tender
type ShiftStatus int

const (
	ShiftStatusOpen   ShiftStatus = 0
	ShiftStatusClosed ShiftStatus = 1
)

func (s ShiftStatus) String() string {
	if s == ShiftStatusClosed {
		return "CLOSED"
	}
	return "OPEN"
}

func (s ShiftStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ShiftStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = ShiftStatus(i)
		return nil
	}
	if str == "CLOSED" {
		*s = ShiftStatusClosed
	} else {
		*s = ShiftStatusOpen
	}
	return nil
}

func (s ShiftStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *ShiftStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ShiftStatusOpen
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = ShiftStatus(v)
	case int:
		*s = ShiftStatus(v)
	}
	return nil
}

// CashMovementType classifies an entry of the cash drawer audit log
type CashMovementType int

const (
	CashMovementOpening    CashMovementType = 0
	CashMovementSale       CashMovementType = 1
	CashMovementRefund     CashMovementType = 2
	CashMovementCashIn     CashMovementType = 3
	CashMovementCashOut    CashMovementType = 4
	CashMovementSettlement CashMovementType = 5
)

var cashMovementNames = [...]string{"OPENING", "SALE", "REFUND", "CASH_IN", "CASH_OUT", "SETTLEMENT"}

func (t CashMovementType) String() string {
	if int(t) < 0 || int(t) >= len(cashMovementNames) {
		return "CASH_IN"
	}
	return cashMovementNames[t]
}

// Outflow reports whether the movement takes cash out of the drawer
func (t CashMovementType) Outflow() bool {
	return t == CashMovementRefund || t == CashMovementCashOut
}

func (t CashMovementType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *CashMovementType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = CashMovementType(i)
		return nil
	}
	for i, name := range cashMovementNames {
		if name == str {
			*t = CashMovementType(i)
			return nil
		}
	}
	return nil
}

func (t CashMovementType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *CashMovementType) Scan(value interface{}) error {
	if value == nil {
		*t = CashMovementOpening
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = CashMovementType(v)
	case int:
		*t = CashMovementType(v)
	}
	return nil
}
