package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	// GetForUpdate locks the customer row for the rest of the transaction
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	GetByCode(ctx context.Context, code string) (*entity.Customer, error)
	// CreateWalkIn inserts the walk-in customer; ErrDuplicate means another request won the race
	CreateWalkIn(ctx context.Context, customer *entity.Customer) error
	Update(ctx context.Context, customer *entity.Customer) error
	// AdjustBalance adds delta to the running credit balance
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error)
}
