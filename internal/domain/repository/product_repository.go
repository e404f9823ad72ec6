package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/pkg/pagination"
)

// ProductRepository defines the interface for catalogue operations
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	// GetByIDs loads products with variants and default tax rates
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error)
	List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Product, int64, error)
	RecipeResolver
}

// RecipeResolver returns the direct ingredients of a composite product
type RecipeResolver interface {
	Components(ctx context.Context, productID uuid.UUID) ([]entity.RecipeComponent, error)
}

// TaxRateRepository defines the interface for tax rate operations
type TaxRateRepository interface {
	Create(ctx context.Context, rate *entity.TaxRate) error
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.TaxRate, error)
	List(ctx context.Context) ([]entity.TaxRate, error)
}
