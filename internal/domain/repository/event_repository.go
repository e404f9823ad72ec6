package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
)

// IntegrationEventRepository defines the interface for the outbox table
type IntegrationEventRepository interface {
	Create(ctx context.Context, event *entity.IntegrationEvent) error
	// ClaimDue returns up to limit pending events whose next attempt is due, skipping
	// rows another worker has locked, and pushes their next attempt lease into the future
	// so a crashed worker's batch is picked up again later
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]entity.IntegrationEvent, error)
	MarkProcessed(ctx context.Context, id snowflake.ID, at time.Time) error
	MarkFailed(ctx context.Context, id snowflake.ID, attempts int, next time.Time, lastErr string, dead bool) error
	GetByID(ctx context.Context, id snowflake.ID) (*entity.IntegrationEvent, error)
}

// JournalRepository defines the interface for accounting posts
type JournalRepository interface {
	Exists(ctx context.Context, sourceType string, sourceID uuid.UUID, kind string) (bool, error)
	Create(ctx context.Context, entry *entity.JournalEntry) error
	ListBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) ([]entity.JournalEntry, error)
}
