package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// PaymentKind groups payment methods by how they settle
type PaymentKind int

const (
	PaymentKindCash     PaymentKind = 0
	PaymentKindCard     PaymentKind = 1
	PaymentKindTransfer PaymentKind = 2
	PaymentKindCredit   PaymentKind = 3
	PaymentKindOther    PaymentKind = 4
)

var paymentKindNames = [...]string{"CASH", "CARD", "TRANSFER", "CREDIT", "OTHER"}

func (k PaymentKind) String() string {
	if int(k) < 0 || int(k) >= len(paymentKindNames) {
		return "OTHER"
	}
	return paymentKindNames[k]
}

// IsCash reports whether change can be handed back from this kind
func (k PaymentKind) IsCash() bool {
	return k == PaymentKindCash
}

func (k PaymentKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *PaymentKind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*k = PaymentKind(i)
		return nil
	}
	for i, name := range paymentKindNames {
		if name == str {
			*k = PaymentKind(i)
			return nil
		}
	}
	*k = PaymentKindOther
	return nil
}

func (k PaymentKind) Value() (driver.Value, error) {
	return int64(k), nil
}

func (k *PaymentKind) Scan(value interface{}) error {
	if value == nil {
		*k = PaymentKindCash
		return nil
	}
	switch v := value.(type) {
	case int64:
		*k = PaymentKind(v)
	case int:
		*k = PaymentKind(v)
	}
	return nil
}
