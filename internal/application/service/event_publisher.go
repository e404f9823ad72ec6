package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"gorm.io/datatypes"
)

// EventPublisher writes outbox events through the repository of the current transaction,
// so an event exists if and only if the change it announces was committed.
type EventPublisher struct {
	node *snowflake.Node
	now  func() time.Time
}

// NewEventPublisher creates a publisher generating ids on node
func NewEventPublisher(node *snowflake.Node) *EventPublisher {
	return &EventPublisher{node: node, now: time.Now}
}

// Publish stores a pending event due immediately
func (p *EventPublisher) Publish(ctx context.Context, events repository.IntegrationEventRepository, tenantID uuid.UUID, eventType string, aggregateID uuid.UUID, payload any) (*entity.IntegrationEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	now := p.now()
	event := &entity.IntegrationEvent{
		ID:            p.node.Generate(),
		TenantID:      tenantID,
		Type:          eventType,
		AggregateID:   aggregateID,
		Payload:       datatypes.JSON(body),
		Status:        enum.EventStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}
