package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ShiftRepository defines the interface for cashier session operations
type ShiftRepository interface {
	Create(ctx context.Context, shift *entity.Shift) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Shift, error)
	// GetOpenByUser returns the user's open shift, or nil
	GetOpenByUser(ctx context.Context, userID uuid.UUID) (*entity.Shift, error)
	Close(ctx context.Context, shift *entity.Shift) error
	AddExpectedCash(ctx context.Context, shiftID uuid.UUID, delta decimal.Decimal) error
	// UpsertSummary creates the method row of the shift or increments it by delta
	UpsertSummary(ctx context.Context, shiftID uuid.UUID, method *entity.PaymentMethod, delta decimal.Decimal) error
	ListSummaries(ctx context.Context, shiftID uuid.UUID) ([]entity.ShiftSummary, error)
	CreateCashMovement(ctx context.Context, movement *entity.CashMovement) error
	ListCashMovements(ctx context.Context, shiftID uuid.UUID) ([]entity.CashMovement, error)
}
