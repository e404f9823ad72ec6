package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type stockRepository struct {
	db *gorm.DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *gorm.DB) domainRepo.StockRepository {
	return &stockRepository{db: db}
}

// Adjust applies delta in one upsert; the row lock it takes serializes
// concurrent sales of the same product until commit
func (r *stockRepository) Adjust(ctx context.Context, key entity.StockKey, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	tenantID, ok := GetTenantID(ctx)
	if !ok {
		return decimal.Zero, decimal.Zero, errors.New("stock adjustment without tenant context")
	}

	var row struct {
		Quantity decimal.Decimal
	}
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO stock_levels (id, tenant_id, warehouse_id, product_id, variant_id, quantity, reorder_point, reorder_quantity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0, NOW())
		ON CONFLICT (warehouse_id, product_id, variant_id)
		DO UPDATE SET quantity = stock_levels.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING quantity`,
		uuid.New(), tenantID, key.WarehouseID, key.ProductID, key.VariantID, delta).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return row.Quantity.Sub(delta), row.Quantity, nil
}

func (r *stockRepository) GetLevel(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	var level entity.StockLevel
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Where("warehouse_id = ? AND product_id = ? AND variant_id = ?", key.WarehouseID, key.ProductID, key.VariantID).
		First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &level, err
}

func (r *stockRepository) SetLevel(ctx context.Context, level *entity.StockLevel) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "warehouse_id"}, {Name: "product_id"}, {Name: "variant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "reorder_point", "reorder_quantity", "updated_at"}),
		}).
		Create(level).Error
}

func (r *stockRepository) ListLevels(ctx context.Context, warehouseID uuid.UUID) ([]entity.StockLevel, error) {
	var levels []entity.StockLevel
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Where("warehouse_id = ?", warehouseID).
		Order("product_id ASC, variant_id ASC").
		Find(&levels).Error
	return levels, err
}

func (r *stockRepository) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&movements).Error
}

func (r *stockRepository) ListMovementsBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) ([]entity.StockMovement, error) {
	var movements []entity.StockMovement
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("created_at ASC").
		Find(&movements).Error
	return movements, err
}

func (r *stockRepository) CreateWarehouse(ctx context.Context, warehouse *entity.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

func (r *stockRepository) GetWarehouse(ctx context.Context, id uuid.UUID) (*entity.Warehouse, error) {
	var warehouse entity.Warehouse
	err := r.db.WithContext(ctx).Scopes(TenantScope(ctx)).First(&warehouse, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &warehouse, err
}

func (r *stockRepository) ListWarehouses(ctx context.Context) ([]entity.Warehouse, error) {
	var warehouses []entity.Warehouse
	err := r.db.WithContext(ctx).Scopes(TenantScope(ctx)).Order("code ASC").Find(&warehouses).Error
	return warehouses, err
}
