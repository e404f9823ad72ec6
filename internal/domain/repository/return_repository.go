package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ReturnRepository defines the interface for sale reversal documents
type ReturnRepository interface {
	Create(ctx context.Context, ret *entity.SaleReturn) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SaleReturn, error)
	CreateCreditNote(ctx context.Context, note *entity.CreditNote) error
	// ReturnedQuantities sums previously returned quantities per sale line
	ReturnedQuantities(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}
