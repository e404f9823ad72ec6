package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type shiftRepository struct {
	db *gorm.DB
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db *gorm.DB) domainRepo.ShiftRepository {
	return &shiftRepository{db: db}
}

func (r *shiftRepository) Create(ctx context.Context, shift *entity.Shift) error {
	return r.db.WithContext(ctx).Omit("Summaries").Create(shift).Error
}

func (r *shiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Shift, error) {
	var shift entity.Shift
	err := r.db.WithContext(ctx).Scopes(TenantScope(ctx)).First(&shift, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &shift, err
}

func (r *shiftRepository) GetOpenByUser(ctx context.Context, userID uuid.UUID) (*entity.Shift, error) {
	var shift entity.Shift
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Where("user_id = ? AND status = ?", userID, enum.ShiftStatusOpen).
		First(&shift).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &shift, err
}

func (r *shiftRepository) Close(ctx context.Context, shift *entity.Shift) error {
	return r.db.WithContext(ctx).
		Model(&entity.Shift{}).
		Scopes(TenantScope(ctx)).
		Where("id = ? AND status = ?", shift.ID, enum.ShiftStatusOpen).
		Updates(map[string]interface{}{
			"status":       shift.Status,
			"counted_cash": shift.CountedCash,
			"difference":   shift.Difference,
			"notes":        shift.Notes,
			"closed_at":    shift.ClosedAt,
		}).Error
}

func (r *shiftRepository) AddExpectedCash(ctx context.Context, shiftID uuid.UUID, delta decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&entity.Shift{}).
		Where("id = ?", shiftID).
		UpdateColumn("expected_cash", gorm.Expr("expected_cash + ?", delta)).Error
}

func (r *shiftRepository) UpsertSummary(ctx context.Context, shiftID uuid.UUID, method *entity.PaymentMethod, delta decimal.Decimal) error {
	summary := &entity.ShiftSummary{
		ShiftID:         shiftID,
		PaymentMethodID: method.ID,
		MethodCode:      method.Code,
		ExpectedAmount:  delta,
		UpdatedAt:       time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "shift_id"}, {Name: "payment_method_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"expected_amount": gorm.Expr("shift_summaries.expected_amount + EXCLUDED.expected_amount"),
				"updated_at":      gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).
		Create(summary).Error
}

func (r *shiftRepository) ListSummaries(ctx context.Context, shiftID uuid.UUID) ([]entity.ShiftSummary, error) {
	var summaries []entity.ShiftSummary
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("method_code ASC").
		Find(&summaries).Error
	return summaries, err
}

func (r *shiftRepository) CreateCashMovement(ctx context.Context, movement *entity.CashMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *shiftRepository) ListCashMovements(ctx context.Context, shiftID uuid.UUID) ([]entity.CashMovement, error) {
	var movements []entity.CashMovement
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&movements).Error
	return movements, err
}
