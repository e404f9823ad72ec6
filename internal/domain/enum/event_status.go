package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// EventStatus tracks delivery of an outbox event
type EventStatus int

const (
	EventStatusPending   EventStatus = 0
	EventStatusProcessed EventStatus = 1
	EventStatusDead      EventStatus = 2
)

func (s EventStatus) String() string {
	return [...]string{"PENDING", "PROCESSED", "DEAD"}[s]
}

func (s EventStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s EventStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *EventStatus) Scan(value interface{}) error {
	if value == nil {
		*s = EventStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = EventStatus(v)
	case int:
		*s = EventStatus(v)
	}
	return nil
}
