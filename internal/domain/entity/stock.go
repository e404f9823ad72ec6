package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Warehouse is a stock location
type Warehouse struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_warehouses_tenant_code" json:"tenant_id"`
	Code      string    `gorm:"size:50;not null;uniqueIndex:idx_warehouses_tenant_code" json:"code"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new warehouse
func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Warehouse model
func (Warehouse) TableName() string {
	return "warehouses"
}

// StockKey addresses one stock level row. VariantID is uuid.Nil for plain products.
type StockKey struct {
	WarehouseID uuid.UUID
	ProductID   uuid.UUID
	VariantID   uuid.UUID
}

// StockLevel is the on-hand quantity of a product/variant in a warehouse.
// Quantity may be negative when overselling is allowed.
type StockLevel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	WarehouseID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_levels_key" json:"warehouse_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_levels_key" json:"product_id"`
	VariantID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_levels_key" json:"variant_id"`
	Quantity        decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"quantity"`
	ReorderPoint    decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"reorder_point"`
	ReorderQuantity decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"reorder_quantity"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new stock level
func (s *StockLevel) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the StockLevel model
func (StockLevel) TableName() string {
	return "stock_levels"
}

// Key returns the addressing tuple of the row
func (s *StockLevel) Key() StockKey {
	return StockKey{WarehouseID: s.WarehouseID, ProductID: s.ProductID, VariantID: s.VariantID}
}

// StockMovement logs one change of a stock level
type StockMovement struct {
	ID             uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	TenantID       uuid.UUID              `gorm:"type:uuid;not null;index" json:"tenant_id"`
	WarehouseID    uuid.UUID              `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	ProductID      uuid.UUID              `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID      uuid.UUID              `gorm:"type:uuid;not null" json:"variant_id"`
	Type           enum.StockMovementType `gorm:"not null" json:"type"`
	Quantity       decimal.Decimal        `gorm:"type:numeric(14,3);not null" json:"quantity"`
	QuantityBefore decimal.Decimal        `gorm:"type:numeric(14,3);not null" json:"quantity_before"`
	QuantityAfter  decimal.Decimal        `gorm:"type:numeric(14,3);not null" json:"quantity_after"`
	UnitCost       decimal.Decimal        `gorm:"type:numeric(14,2);not null;default:0" json:"unit_cost"`
	Reason         string                 `gorm:"size:50;not null" json:"reason"`
	Reference      string                 `gorm:"size:50;not null;index" json:"reference"`
	SourceType     string                 `gorm:"size:30;not null;index:idx_stock_movements_source" json:"source_type"`
	SourceID       uuid.UUID              `gorm:"type:uuid;not null;index:idx_stock_movements_source" json:"source_id"`
	UserID         uuid.UUID              `gorm:"type:uuid;not null" json:"user_id"`
	CreatedAt      time.Time              `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new stock movement
func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the StockMovement model
func (StockMovement) TableName() string {
	return "stock_movements"
}

// Cost is the valued quantity of the movement
func (m *StockMovement) Cost() decimal.Decimal {
	return m.Quantity.Mul(m.UnitCost).Round(2)
}
