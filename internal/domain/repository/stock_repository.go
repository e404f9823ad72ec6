package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockRepository defines the interface for stock level operations
type StockRepository interface {
	// Adjust adds delta to the level at key, creating the row at zero when absent,
	// and returns the quantities before and after the change
	Adjust(ctx context.Context, key entity.StockKey, delta decimal.Decimal) (before, after decimal.Decimal, err error)
	GetLevel(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error)
	SetLevel(ctx context.Context, level *entity.StockLevel) error
	ListLevels(ctx context.Context, warehouseID uuid.UUID) ([]entity.StockLevel, error)
	CreateMovements(ctx context.Context, movements []entity.StockMovement) error
	ListMovementsBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) ([]entity.StockMovement, error)
	CreateWarehouse(ctx context.Context, warehouse *entity.Warehouse) error
	GetWarehouse(ctx context.Context, id uuid.UUID) (*entity.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]entity.Warehouse, error)
}
