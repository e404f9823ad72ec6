package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a sellable item of the catalogue
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_products_tenant_code" json:"tenant_id"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Code          string          `gorm:"size:100;not null;uniqueIndex:idx_products_tenant_code" json:"code"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Price         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"price"`
	// CostPrice values stock movements for the cost-of-sales post.
	CostPrice     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cost_price"`
	TrackStock    bool            `gorm:"not null;default:true" json:"track_stock"`
	IsComposite   bool            `gorm:"not null;default:false" json:"is_composite"`
	ConsumeRecipe bool            `gorm:"not null;default:false" json:"consume_recipe"`
	Notes         *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`

	Variants   []ProductVariant  `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	Components []RecipeComponent `gorm:"foreignKey:ProductID" json:"components,omitempty"`
	TaxRates   []TaxRate         `gorm:"many2many:product_tax_rates" json:"tax_rates,omitempty"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// ExpandsRecipe reports whether selling the product consumes its ingredients
func (p *Product) ExpandsRecipe() bool {
	return p.IsComposite && p.ConsumeRecipe
}

// ProductVariant is a size/flavour of a product with its own price and stock row
type ProductVariant struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	SKU       string          `gorm:"size:100;not null" json:"sku"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new variant
func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ProductVariant model
func (ProductVariant) TableName() string {
	return "product_variants"
}

// RecipeComponent declares that one unit of ProductID consumes Quantity of IngredientID
type RecipeComponent struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_components_pair" json:"product_id"`
	IngredientID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_components_pair" json:"ingredient_id"`
	Quantity     decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
}

// BeforeCreate generates a UUID before creating a new recipe component
func (c *RecipeComponent) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the RecipeComponent model
func (RecipeComponent) TableName() string {
	return "recipe_components"
}

// TaxRate is a percentage tax configured for a tenant
type TaxRate struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Rate      decimal.Decimal `gorm:"type:numeric(7,4);not null" json:"rate"`
	Kind      enum.TaxKind    `gorm:"not null;default:0" json:"kind"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new tax rate
func (t *TaxRate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the TaxRate model
func (TaxRate) TableName() string {
	return "tax_rates"
}
