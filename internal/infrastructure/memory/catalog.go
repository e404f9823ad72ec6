package memory

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/sangkips/investify-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

type productRepository struct{ session }

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	for _, p := range d.products {
		if p.TenantID == product.TenantID && p.Code == product.Code {
			return duplicate("product code %s", product.Code)
		}
	}

	newID(&product.ID)
	product.CreatedAt, product.UpdatedAt = r.now(), r.now()
	for i := range product.Variants {
		newID(&product.Variants[i].ID)
		product.Variants[i].ProductID = product.ID
		product.Variants[i].CreatedAt = product.CreatedAt
	}
	for i := range product.Components {
		newID(&product.Components[i].ID)
		product.Components[i].ProductID = product.ID
	}

	stored := *product
	stored.Variants = slices.Clone(product.Variants)
	stored.Components = slices.Clone(product.Components)
	stored.TaxRates = slices.Clone(product.TaxRates)
	d.products[product.ID] = stored
	return nil
}

// withRates refreshes the linked tax rates so rate edits show up on reads
func (r *productRepository) withRates(p entity.Product) entity.Product {
	d := r.data()
	rates := make([]entity.TaxRate, 0, len(p.TaxRates))
	for _, t := range p.TaxRates {
		if current, ok := d.taxRates[t.ID]; ok {
			rates = append(rates, current)
		}
	}
	p.TaxRates = rates
	p.Variants = slices.Clone(p.Variants)
	p.Components = slices.Clone(p.Components)
	return p
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	unlock := r.lock()
	defer unlock()

	p, ok := r.data().products[id]
	if !ok || !visible(ctx, p.TenantID) {
		return nil, nil
	}
	p = r.withRates(p)
	return &p, nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	out := make([]entity.Product, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		p, ok := d.products[id]
		if !ok || seen[id] || !visible(ctx, p.TenantID) {
			continue
		}
		seen[id] = true
		out = append(out, r.withRates(p))
	}
	return out, nil
}

func (r *productRepository) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Product, int64, error) {
	unlock := r.lock()
	defer unlock()

	search = strings.ToLower(search)
	var matched []entity.Product
	for _, p := range r.data().products {
		if !visible(ctx, p.TenantID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.Code), search) {
			continue
		}
		matched = append(matched, r.withRates(p))
	}
	slices.SortFunc(matched, func(a, b entity.Product) int { return strings.Compare(a.Name, b.Name) })

	params.Validate()
	start, end := params.Window(len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (r *productRepository) Components(ctx context.Context, productID uuid.UUID) ([]entity.RecipeComponent, error) {
	unlock := r.lock()
	defer unlock()

	p, ok := r.data().products[productID]
	if !ok {
		return nil, nil
	}
	return slices.Clone(p.Components), nil
}

// SetComponents replaces a product's recipe without validating it. Tests use it
// to build recipes the catalogue would refuse, such as cycles.
func (s *Store) SetComponents(productID uuid.UUID, components []entity.RecipeComponent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.data.products[productID]
	if !ok {
		return
	}
	p.Components = slices.Clone(components)
	s.data.products[productID] = p
}

type taxRateRepository struct{ session }

func (r *taxRateRepository) Create(ctx context.Context, rate *entity.TaxRate) error {
	unlock := r.lock()
	defer unlock()

	newID(&rate.ID)
	rate.CreatedAt, rate.UpdatedAt = r.now(), r.now()
	r.data().taxRates[rate.ID] = *rate
	return nil
}

func (r *taxRateRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.TaxRate, error) {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	out := make([]entity.TaxRate, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		t, ok := d.taxRates[id]
		if ok && !seen[id] && visible(ctx, t.TenantID) {
			seen[id] = true
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *taxRateRepository) List(ctx context.Context) ([]entity.TaxRate, error) {
	unlock := r.lock()
	defer unlock()

	var out []entity.TaxRate
	for _, t := range r.data().taxRates {
		if visible(ctx, t.TenantID) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b entity.TaxRate) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

type stockRepository struct{ session }

func (r *stockRepository) Adjust(ctx context.Context, key entity.StockKey, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return decimal.Zero, decimal.Zero, errors.New("stock adjustment without tenant context")
	}

	unlock := r.lock()
	defer unlock()

	d := r.data()
	level, exists := d.levels[key]
	if !exists {
		level = entity.StockLevel{
			ID:          uuid.New(),
			TenantID:    tenantID,
			WarehouseID: key.WarehouseID,
			ProductID:   key.ProductID,
			VariantID:   key.VariantID,
		}
	}
	before := level.Quantity
	level.Quantity = before.Add(delta)
	level.UpdatedAt = r.now()
	d.levels[key] = level
	return before, level.Quantity, nil
}

func (r *stockRepository) GetLevel(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	unlock := r.lock()
	defer unlock()

	level, ok := r.data().levels[key]
	if !ok || !visible(ctx, level.TenantID) {
		return nil, nil
	}
	return &level, nil
}

func (r *stockRepository) SetLevel(ctx context.Context, level *entity.StockLevel) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	if existing, ok := d.levels[level.Key()]; ok {
		level.ID = existing.ID
	}
	newID(&level.ID)
	level.UpdatedAt = r.now()
	d.levels[level.Key()] = *level
	return nil
}

func (r *stockRepository) ListLevels(ctx context.Context, warehouseID uuid.UUID) ([]entity.StockLevel, error) {
	unlock := r.lock()
	defer unlock()

	var out []entity.StockLevel
	for _, level := range r.data().levels {
		if level.WarehouseID == warehouseID && visible(ctx, level.TenantID) {
			out = append(out, level)
		}
	}
	slices.SortFunc(out, func(a, b entity.StockLevel) int {
		if c := strings.Compare(a.ProductID.String(), b.ProductID.String()); c != 0 {
			return c
		}
		return strings.Compare(a.VariantID.String(), b.VariantID.String())
	})
	return out, nil
}

func (r *stockRepository) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	for i := range movements {
		newID(&movements[i].ID)
		movements[i].CreatedAt = r.now()
		d.movements = append(d.movements, movements[i])
	}
	return nil
}

func (r *stockRepository) ListMovementsBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) ([]entity.StockMovement, error) {
	unlock := r.lock()
	defer unlock()

	var out []entity.StockMovement
	for _, m := range r.data().movements {
		if m.SourceType == sourceType && m.SourceID == sourceID && visible(ctx, m.TenantID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stockRepository) CreateWarehouse(ctx context.Context, warehouse *entity.Warehouse) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	for _, w := range d.warehouses {
		if w.TenantID == warehouse.TenantID && w.Code == warehouse.Code {
			return duplicate("warehouse code %s", warehouse.Code)
		}
	}
	newID(&warehouse.ID)
	warehouse.CreatedAt, warehouse.UpdatedAt = r.now(), r.now()
	d.warehouses[warehouse.ID] = *warehouse
	return nil
}

func (r *stockRepository) GetWarehouse(ctx context.Context, id uuid.UUID) (*entity.Warehouse, error) {
	unlock := r.lock()
	defer unlock()

	w, ok := r.data().warehouses[id]
	if !ok || !visible(ctx, w.TenantID) {
		return nil, nil
	}
	return &w, nil
}

func (r *stockRepository) ListWarehouses(ctx context.Context) ([]entity.Warehouse, error) {
	unlock := r.lock()
	defer unlock()

	var out []entity.Warehouse
	for _, w := range r.data().warehouses {
		if visible(ctx, w.TenantID) {
			out = append(out, w)
		}
	}
	slices.SortFunc(out, func(a, b entity.Warehouse) int { return strings.Compare(a.Code, b.Code) })
	return out, nil
}
