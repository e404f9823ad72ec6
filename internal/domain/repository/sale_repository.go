package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// SaleRepository defines the interface for sale document operations
type SaleRepository interface {
	// Create inserts the sale together with its lines, line taxes and tax summaries
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID loads the sale with lines, taxes, summaries, payments and customer
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	// GetForUpdate loads the sale header and its lines, locking the header row
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	List(ctx context.Context, params *SaleFilterParams) ([]entity.Sale, int64, error)
	UpdateSettlement(ctx context.Context, id uuid.UUID, status enum.SaleStatus, balance decimal.Decimal) error
	MarkTransmitted(ctx context.Context, id uuid.UUID, at time.Time) error
}

// SaleFilterParams contains filtering parameters for sale queries
type SaleFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.SaleStatus
	CustomerID *uuid.UUID
	ShiftID    *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
}

// PaymentRepository defines the interface for payment operations
type PaymentRepository interface {
	CreateBatch(ctx context.Context, payments []entity.Payment) error
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]entity.Payment, error)
}

// PaymentMethodRepository defines the interface for payment method operations
type PaymentMethodRepository interface {
	Create(ctx context.Context, method *entity.PaymentMethod) error
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.PaymentMethod, error)
	GetByCode(ctx context.Context, code string) (*entity.PaymentMethod, error)
	List(ctx context.Context) ([]entity.PaymentMethod, error)
}

// SequenceRepository hands out document numbers
type SequenceRepository interface {
	// Next returns the next value of the tenant's counter, locking it until the transaction ends
	Next(ctx context.Context, tenantID uuid.UUID, key string) (int64, error)
}
