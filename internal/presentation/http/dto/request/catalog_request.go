package request

import (
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// VariantRequest represents a sellable variant of a product
type VariantRequest struct {
	SKU   string          `json:"sku" binding:"required,max=100"`
	Name  string          `json:"name" binding:"required,max=255"`
	Price decimal.Decimal `json:"price"`
}

// ComponentRequest is one ingredient of a recipe
type ComponentRequest struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	Code          string             `json:"code" binding:"required,max=100"`
	Name          string             `json:"name" binding:"required,min=2,max=255"`
	Price         decimal.Decimal    `json:"price"`
	CostPrice     decimal.Decimal    `json:"cost_price"`
	TrackStock    *bool              `json:"track_stock"`
	IsComposite   bool               `json:"is_composite"`
	ConsumeRecipe bool               `json:"consume_recipe"`
	Notes         *string            `json:"notes"`
	Variants      []VariantRequest   `json:"variants" binding:"dive"`
	Components    []ComponentRequest `json:"components"`
	TaxRateIDs    []uuid.UUID        `json:"tax_rate_ids"`
}

// CreateTaxRateRequest represents a tax rate creation request
type CreateTaxRateRequest struct {
	Name string          `json:"name" binding:"required,max=100"`
	Rate decimal.Decimal `json:"rate"`
	Kind enum.TaxKind    `json:"kind"`
}

// CreatePaymentMethodRequest represents a payment method creation request
type CreatePaymentMethodRequest struct {
	Code string           `json:"code" binding:"required,max=50"`
	Name string           `json:"name" binding:"required,max=100"`
	Kind enum.PaymentKind `json:"kind"`
}

// CreateWarehouseRequest represents a warehouse creation request
type CreateWarehouseRequest struct {
	Code string `json:"code" binding:"required,max=50"`
	Name string `json:"name" binding:"required,max=255"`
}

// SetStockLevelRequest records an initial or counted quantity
type SetStockLevelRequest struct {
	WarehouseID     uuid.UUID       `json:"warehouse_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	VariantID       *uuid.UUID      `json:"variant_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
}

// CreateCustomerRequest represents a customer creation request
type CreateCustomerRequest struct {
	Code        string           `json:"code" binding:"required,max=50"`
	Name        string           `json:"name" binding:"required,max=255"`
	Email       *string          `json:"email" binding:"omitempty,email"`
	Phone       *string          `json:"phone" binding:"omitempty,max=50"`
	TaxID       *string          `json:"tax_id" binding:"omitempty,max=50"`
	Address     *string          `json:"address"`
	CreditLimit *decimal.Decimal `json:"credit_limit"`
}

// UpdateCustomerRequest represents a customer update request
type UpdateCustomerRequest struct {
	Name             *string          `json:"name" binding:"omitempty,max=255"`
	Email            *string          `json:"email" binding:"omitempty,email"`
	Phone            *string          `json:"phone" binding:"omitempty,max=50"`
	TaxID            *string          `json:"tax_id" binding:"omitempty,max=50"`
	Address          *string          `json:"address"`
	CreditLimit      *decimal.Decimal `json:"credit_limit"`
	ClearCreditLimit bool             `json:"clear_credit_limit"`
}
