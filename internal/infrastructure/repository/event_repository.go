package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type integrationEventRepository struct {
	db *gorm.DB
}

// NewIntegrationEventRepository creates a new outbox repository.
// The outbox is drained across tenants, so queries here are not tenant scoped.
func NewIntegrationEventRepository(db *gorm.DB) domainRepo.IntegrationEventRepository {
	return &integrationEventRepository{db: db}
}

func (r *integrationEventRepository) Create(ctx context.Context, event *entity.IntegrationEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *integrationEventRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]entity.IntegrationEvent, error) {
	var events []entity.IntegrationEvent
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND next_attempt_at <= ?", enum.EventStatusPending, now).
		Order("next_attempt_at ASC, id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil || len(events) == 0 {
		return events, err
	}

	ids := make([]snowflake.ID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	err = r.db.WithContext(ctx).
		Model(&entity.IntegrationEvent{}).
		Where("id IN ?", ids).
		Update("next_attempt_at", now.Add(lease)).Error
	return events, err
}

func (r *integrationEventRepository) MarkProcessed(ctx context.Context, id snowflake.ID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.IntegrationEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       enum.EventStatusProcessed,
			"processed_at": at,
			"last_error":   nil,
		}).Error
}

func (r *integrationEventRepository) MarkFailed(ctx context.Context, id snowflake.ID, attempts int, next time.Time, lastErr string, dead bool) error {
	status := enum.EventStatusPending
	if dead {
		status = enum.EventStatusDead
	}
	return r.db.WithContext(ctx).
		Model(&entity.IntegrationEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"attempts":        attempts,
			"next_attempt_at": next,
			"last_error":      lastErr,
		}).Error
}

func (r *integrationEventRepository) GetByID(ctx context.Context, id snowflake.ID) (*entity.IntegrationEvent, error) {
	var event entity.IntegrationEvent
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &event, err
}

type journalRepository struct {
	db *gorm.DB
}

// NewJournalRepository creates a new journal repository
func NewJournalRepository(db *gorm.DB) domainRepo.JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) Exists(ctx context.Context, sourceType string, sourceID uuid.UUID, kind string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.JournalEntry{}).
		Where("source_type = ? AND source_id = ? AND kind = ?", sourceType, sourceID, kind).
		Count(&count).Error
	return count > 0, err
}

func (r *journalRepository) Create(ctx context.Context, entry *entity.JournalEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *journalRepository) ListBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) ([]entity.JournalEntry, error) {
	var entries []entity.JournalEntry
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Lines").
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("posted_at ASC").
		Find(&entries).Error
	return entries, err
}
