package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/pagination"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) domainRepo.ProductRepository {
	return &productRepository{db: db}
}

// Create inserts the product with its variants and recipe, and links existing tax rates
func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Omit("TaxRates.*").Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Variants").Preload("Components").Preload("TaxRates").
		First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

// GetByIDs retrieves multiple products by their IDs in a single query
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	if len(ids) == 0 {
		return []entity.Product{}, nil
	}
	var products []entity.Product
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Variants").Preload("TaxRates").
		Where("id IN ?", ids).
		Find(&products).Error
	return products, err
}

func (r *productRepository) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Product, int64, error) {
	var products []entity.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Product{}).Scopes(TenantScope(ctx))

	if search != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Preload("Variants").Preload("TaxRates").
		Order("name ASC").
		Find(&products).Error

	return products, total, err
}

func (r *productRepository) Components(ctx context.Context, productID uuid.UUID) ([]entity.RecipeComponent, error) {
	var components []entity.RecipeComponent
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("ingredient_id ASC").
		Find(&components).Error
	return components, err
}

type taxRateRepository struct {
	db *gorm.DB
}

// NewTaxRateRepository creates a new tax rate repository
func NewTaxRateRepository(db *gorm.DB) domainRepo.TaxRateRepository {
	return &taxRateRepository{db: db}
}

func (r *taxRateRepository) Create(ctx context.Context, rate *entity.TaxRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

func (r *taxRateRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.TaxRate, error) {
	if len(ids) == 0 {
		return []entity.TaxRate{}, nil
	}
	var rates []entity.TaxRate
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Where("id IN ?", ids).
		Find(&rates).Error
	return rates, err
}

func (r *taxRateRepository) List(ctx context.Context) ([]entity.TaxRate, error) {
	var rates []entity.TaxRate
	err := r.db.WithContext(ctx).Scopes(TenantScope(ctx)).Order("name ASC").Find(&rates).Error
	return rates, err
}
