package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// CatalogService sets up what the till sells: products, taxes, tenders and stock
type CatalogService struct {
	uow repository.UnitOfWork
}

// NewCatalogService creates a new catalog service
func NewCatalogService(uow repository.UnitOfWork) *CatalogService {
	return &CatalogService{uow: uow}
}

// VariantInput represents a product variant
type VariantInput struct {
	SKU   string
	Name  string
	Price decimal.Decimal
}

// ComponentInput is one ingredient of a recipe
type ComponentInput struct {
	IngredientID uuid.UUID
	Quantity     decimal.Decimal
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	UserID        uuid.UUID
	Code          string
	Name          string
	Price         decimal.Decimal
	CostPrice     decimal.Decimal
	TrackStock    bool
	IsComposite   bool
	ConsumeRecipe bool
	Notes         *string
	Variants      []VariantInput
	Components    []ComponentInput
	TaxRateIDs    []uuid.UUID
}

// CreateProduct creates a product with its variants, recipe and default taxes
func (s *CatalogService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	// Extract tenant ID from context
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	var errs []apperror.FieldError
	if strings.TrimSpace(input.Code) == "" {
		errs = append(errs, apperror.FieldError{Field: "code", Message: "Code is required"})
	}
	if input.Price.IsNegative() {
		errs = append(errs, apperror.FieldError{Field: "price", Message: "Price cannot be negative"})
	}
	if input.CostPrice.IsNegative() {
		errs = append(errs, apperror.FieldError{Field: "cost_price", Message: "Cost price cannot be negative"})
	}
	if len(input.Components) > 0 && !input.IsComposite {
		errs = append(errs, apperror.FieldError{Field: "components", Message: "Only composite products have a recipe"})
	}
	for i, c := range input.Components {
		if !c.Quantity.IsPositive() {
			errs = append(errs, apperror.FieldError{Field: fmt.Sprintf("components[%d].quantity", i), Message: "Quantity must be greater than zero"})
		}
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	product := &entity.Product{
		ID:            uuid.New(),
		TenantID:      tenantID,
		UserID:        input.UserID,
		Code:          strings.TrimSpace(input.Code),
		Name:          input.Name,
		Price:         input.Price,
		CostPrice:     input.CostPrice,
		TrackStock:    input.TrackStock,
		IsComposite:   input.IsComposite,
		ConsumeRecipe: input.IsComposite && input.ConsumeRecipe,
		Notes:         input.Notes,
	}
	for _, v := range input.Variants {
		product.Variants = append(product.Variants, entity.ProductVariant{SKU: v.SKU, Name: v.Name, Price: v.Price})
	}

	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if len(input.Components) > 0 {
			ids := make([]uuid.UUID, 0, len(input.Components))
			for _, c := range input.Components {
				ids = append(ids, c.IngredientID)
			}
			ingredients, err := repos.Products.GetByIDs(ctx, ids)
			if err != nil {
				return err
			}
			found := make(map[uuid.UUID]bool, len(ingredients))
			for _, p := range ingredients {
				found[p.ID] = true
			}
			for i, c := range input.Components {
				if !found[c.IngredientID] {
					return apperror.NewFieldError(fmt.Sprintf("components[%d].ingredient_id", i), "Ingredient not found")
				}
				product.Components = append(product.Components, entity.RecipeComponent{
					ProductID:    product.ID,
					IngredientID: c.IngredientID,
					Quantity:     c.Quantity,
				})
			}
		}

		if len(input.TaxRateIDs) > 0 {
			rates, err := repos.TaxRates.GetByIDs(ctx, input.TaxRateIDs)
			if err != nil {
				return err
			}
			if len(rates) != len(input.TaxRateIDs) {
				return apperror.NewFieldError("tax_rate_ids", "Tax rate not found")
			}
			product.TaxRates = rates
		}

		if err := repos.Products.Create(ctx, product); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperror.NewConflictError("Product code already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct retrieves a product by ID
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.uow.Repositories().Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts lists products of the tenant
func (s *CatalogService) ListProducts(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Product], error) {
	params.Validate()
	products, total, err := s.uow.Repositories().Products.List(ctx, params, search)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(products, params, total), nil
}

// CreateTaxRateInput represents the create tax rate input
type CreateTaxRateInput struct {
	Name string
	Rate decimal.Decimal
	Kind enum.TaxKind
}

// CreateTaxRate creates a tax rate
func (s *CatalogService) CreateTaxRate(ctx context.Context, input *CreateTaxRateInput) (*entity.TaxRate, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}
	if input.Rate.IsNegative() || input.Rate.GreaterThan(hundred) {
		return nil, apperror.NewFieldError("rate", "Rate must be between 0 and 100")
	}

	rate := &entity.TaxRate{TenantID: tenantID, Name: input.Name, Rate: input.Rate, Kind: input.Kind, Active: true}
	if err := s.uow.Repositories().TaxRates.Create(ctx, rate); err != nil {
		return nil, err
	}
	return rate, nil
}

// ListTaxRates lists the tenant's tax rates
func (s *CatalogService) ListTaxRates(ctx context.Context) ([]entity.TaxRate, error) {
	return s.uow.Repositories().TaxRates.List(ctx)
}

// CreatePaymentMethodInput represents the create payment method input
type CreatePaymentMethodInput struct {
	Code string
	Name string
	Kind enum.PaymentKind
}

// CreatePaymentMethod creates a payment method
func (s *CatalogService) CreatePaymentMethod(ctx context.Context, input *CreatePaymentMethodInput) (*entity.PaymentMethod, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	method := &entity.PaymentMethod{
		TenantID: tenantID,
		Code:     strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:     input.Name,
		Kind:     input.Kind,
		Active:   true,
	}
	if err := s.uow.Repositories().PaymentMethods.Create(ctx, method); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflictError("Payment method code already exists")
		}
		return nil, err
	}
	return method, nil
}

// ListPaymentMethods lists the tenant's payment methods
func (s *CatalogService) ListPaymentMethods(ctx context.Context) ([]entity.PaymentMethod, error) {
	return s.uow.Repositories().PaymentMethods.List(ctx)
}

// CreateWarehouse creates a stock location
func (s *CatalogService) CreateWarehouse(ctx context.Context, code, name string) (*entity.Warehouse, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	warehouse := &entity.Warehouse{TenantID: tenantID, Code: strings.ToUpper(strings.TrimSpace(code)), Name: name}
	if err := s.uow.Repositories().Stock.CreateWarehouse(ctx, warehouse); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflictError("Warehouse code already exists")
		}
		return nil, err
	}
	return warehouse, nil
}

// ListWarehouses lists the tenant's warehouses
func (s *CatalogService) ListWarehouses(ctx context.Context) ([]entity.Warehouse, error) {
	return s.uow.Repositories().Stock.ListWarehouses(ctx)
}

// SetStockLevelInput sets the counted quantity of a product in a warehouse
type SetStockLevelInput struct {
	WarehouseID     uuid.UUID
	ProductID       uuid.UUID
	VariantID       *uuid.UUID
	Quantity        decimal.Decimal
	ReorderPoint    decimal.Decimal
	ReorderQuantity decimal.Decimal
}

// SetStockLevel records an initial or counted quantity
func (s *CatalogService) SetStockLevel(ctx context.Context, input *SetStockLevelInput) (*entity.StockLevel, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	level := &entity.StockLevel{
		TenantID:        tenantID,
		WarehouseID:     input.WarehouseID,
		ProductID:       input.ProductID,
		Quantity:        input.Quantity,
		ReorderPoint:    input.ReorderPoint,
		ReorderQuantity: input.ReorderQuantity,
	}
	if input.VariantID != nil {
		level.VariantID = *input.VariantID
	}

	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		warehouse, err := repos.Stock.GetWarehouse(ctx, input.WarehouseID)
		if err != nil {
			return err
		}
		if warehouse == nil {
			return apperror.NewFieldError("warehouse_id", "Warehouse not found")
		}
		product, err := repos.Products.GetByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return apperror.NewFieldError("product_id", "Product not found")
		}
		if input.VariantID != nil && findVariant(product, *input.VariantID) == nil {
			return apperror.NewFieldError("variant_id", "Variant does not belong to the product")
		}
		return repos.Stock.SetLevel(ctx, level)
	})
	if err != nil {
		return nil, err
	}
	return level, nil
}

// ListStockLevels lists the levels of a warehouse
func (s *CatalogService) ListStockLevels(ctx context.Context, warehouseID uuid.UUID) ([]entity.StockLevel, error) {
	return s.uow.Repositories().Stock.ListLevels(ctx, warehouseID)
}
