package entity

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"gorm.io/datatypes"
)

// Outbox event types
const (
	EventSaleCompleted = "sale.completed"
	EventSaleReturned  = "sale.returned"
	EventCreditSettled = "credit.settled"
)

// IntegrationEvent is an outbox row written in the same transaction as the change it announces
type IntegrationEvent struct {
	ID            snowflake.ID     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Type          string           `gorm:"size:50;not null" json:"type"`
	AggregateID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"aggregate_id"`
	Payload       datatypes.JSON   `gorm:"type:jsonb;not null" json:"payload"`
	Status        enum.EventStatus `gorm:"not null;default:0;index:idx_integration_events_due" json:"status"`
	Attempts      int              `gorm:"not null;default:0" json:"attempts"`
	NextAttemptAt time.Time        `gorm:"not null;index:idx_integration_events_due" json:"next_attempt_at"`
	LastError     *string          `gorm:"type:text" json:"last_error,omitempty"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TableName returns the table name for the IntegrationEvent model
func (IntegrationEvent) TableName() string {
	return "integration_events"
}

// SaleEventPayload is the body of the sale and credit events
type SaleEventPayload struct {
	SaleID   uuid.UUID  `json:"sale_id"`
	Number   string     `json:"number"`
	ReturnID *uuid.UUID `json:"return_id,omitempty"`
	// PaymentIDs lists the payments a settlement event covers.
	PaymentIDs []uuid.UUID `json:"payment_ids,omitempty"`
}
