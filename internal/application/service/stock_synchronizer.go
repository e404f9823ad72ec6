package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/shopspring/decimal"
)

// Stock movement sources
const (
	StockSourceSale   = "SALE"
	StockSourceReturn = "RETURN"
)

// StockLine is a sold or returned quantity of a product or variant
type StockLine struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  decimal.Decimal
}

// StockDocument describes the document whose lines move stock
type StockDocument struct {
	TenantID    uuid.UUID
	WarehouseID uuid.UUID
	UserID      uuid.UUID
	SourceType  string
	SourceID    uuid.UUID
	Reference   string
	Lines       []StockLine
}

// StockSynchronizer keeps warehouse levels in step with sales and returns
type StockSynchronizer struct {
	blockOversell bool
}

// NewStockSynchronizer creates a stock synchronizer. With blockOversell a
// level that would go negative fails the sale instead of logging a warning.
func NewStockSynchronizer(blockOversell bool) *StockSynchronizer {
	return &StockSynchronizer{blockOversell: blockOversell}
}

type stockRequirement struct {
	key      entity.StockKey
	quantity decimal.Decimal
	unitCost decimal.Decimal
}

// Consume decrements stock for every sold line, expanding recipes
func (s *StockSynchronizer) Consume(ctx context.Context, repos *repository.Repositories, doc StockDocument) ([]entity.StockMovement, error) {
	return s.apply(ctx, repos, doc, enum.StockMovementOut)
}

// Restock puts returned quantities back, expanding recipes the same way Consume does
func (s *StockSynchronizer) Restock(ctx context.Context, repos *repository.Repositories, doc StockDocument) ([]entity.StockMovement, error) {
	return s.apply(ctx, repos, doc, enum.StockMovementIn)
}

func (s *StockSynchronizer) apply(ctx context.Context, repos *repository.Repositories, doc StockDocument, direction enum.StockMovementType) ([]entity.StockMovement, error) {
	catalog := newProductCatalog(repos.Products)

	ids := make([]uuid.UUID, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		ids = append(ids, line.ProductID)
	}
	if err := catalog.load(ctx, ids); err != nil {
		return nil, err
	}

	reqs := newRequirementSet()
	for _, line := range doc.Lines {
		product := catalog.get(line.ProductID)
		if product == nil {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", line.ProductID))
		}
		if !product.TrackStock {
			continue
		}

		if product.ExpandsRecipe() {
			if err := s.expand(ctx, catalog, reqs, doc.WarehouseID, product.ID, line.Quantity); err != nil {
				return nil, err
			}
			continue
		}

		reqs.add(entity.StockKey{WarehouseID: doc.WarehouseID, ProductID: product.ID, VariantID: line.VariantID},
			line.Quantity, product.CostPrice)
	}

	movements := make([]entity.StockMovement, 0, len(reqs.order))
	for _, req := range reqs.list() {
		delta := req.quantity
		if direction == enum.StockMovementOut {
			delta = delta.Neg()
		}

		before, after, err := repos.Stock.Adjust(ctx, req.key, delta)
		if err != nil {
			return nil, err
		}

		if direction == enum.StockMovementOut && after.IsNegative() {
			if s.blockOversell {
				return nil, apperror.NewBusinessError(apperror.CodeInsufficientStock,
					fmt.Sprintf("Insufficient stock for product %s: %s on hand, %s required",
						req.key.ProductID, before.String(), req.quantity.String()))
			}
			log.Printf("[stock] warehouse=%s product=%s oversold to %s by %s",
				req.key.WarehouseID, req.key.ProductID, after.String(), doc.Reference)
		}

		movements = append(movements, entity.StockMovement{
			TenantID:       doc.TenantID,
			WarehouseID:    req.key.WarehouseID,
			ProductID:      req.key.ProductID,
			VariantID:      req.key.VariantID,
			Type:           direction,
			Quantity:       req.quantity,
			QuantityBefore: before,
			QuantityAfter:  after,
			UnitCost:       req.unitCost,
			Reason:         doc.SourceType,
			Reference:      doc.Reference,
			SourceType:     doc.SourceType,
			SourceID:       doc.SourceID,
			UserID:         doc.UserID,
		})
	}

	if len(movements) == 0 {
		return movements, nil
	}
	if err := repos.Stock.CreateMovements(ctx, movements); err != nil {
		return nil, err
	}
	return movements, nil
}

// expand walks the recipe DAG below rootID and adds leaf ingredient requirements.
// Quantities multiply along the path; a product met again on its own path is a cycle.
func (s *StockSynchronizer) expand(ctx context.Context, catalog *productCatalog, reqs *requirementSet, warehouseID, rootID uuid.UUID, qty decimal.Decimal) error {
	onPath := make(map[uuid.UUID]bool)

	var walk func(id uuid.UUID, qty decimal.Decimal) error
	walk = func(id uuid.UUID, qty decimal.Decimal) error {
		if onPath[id] {
			return apperror.NewBusinessError(apperror.CodeRecipeCycle,
				fmt.Sprintf("Recipe of product %s contains itself", id))
		}
		onPath[id] = true
		defer delete(onPath, id)

		components, err := catalog.resolver.Components(ctx, id)
		if err != nil {
			return err
		}

		ingredientIDs := make([]uuid.UUID, 0, len(components))
		for _, c := range components {
			ingredientIDs = append(ingredientIDs, c.IngredientID)
		}
		if err := catalog.load(ctx, ingredientIDs); err != nil {
			return err
		}

		for _, c := range components {
			need := qty.Mul(c.Quantity)
			ingredient := catalog.get(c.IngredientID)
			if ingredient == nil {
				return apperror.NewNotFoundError(fmt.Sprintf("Ingredient %s", c.IngredientID))
			}
			if ingredient.ExpandsRecipe() {
				if err := walk(ingredient.ID, need); err != nil {
					return err
				}
				continue
			}
			if !ingredient.TrackStock {
				continue
			}
			reqs.add(entity.StockKey{WarehouseID: warehouseID, ProductID: ingredient.ID},
				need, ingredient.CostPrice)
		}
		return nil
	}

	return walk(rootID, qty)
}

// productCatalog caches products loaded during one synchronization
type productCatalog struct {
	repo     repository.ProductRepository
	resolver repository.RecipeResolver
	byID     map[uuid.UUID]*entity.Product
}

func newProductCatalog(repo repository.ProductRepository) *productCatalog {
	return &productCatalog{repo: repo, resolver: repo, byID: make(map[uuid.UUID]*entity.Product)}
}

func (c *productCatalog) load(ctx context.Context, ids []uuid.UUID) error {
	missing := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := c.byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	products, err := c.repo.GetByIDs(ctx, missing)
	if err != nil {
		return err
	}
	for i := range products {
		c.byID[products[i].ID] = &products[i]
	}
	return nil
}

func (c *productCatalog) get(id uuid.UUID) *entity.Product {
	return c.byID[id]
}

// requirementSet aggregates quantities per stock row in first-seen order
type requirementSet struct {
	order []entity.StockKey
	byKey map[entity.StockKey]*stockRequirement
}

func newRequirementSet() *requirementSet {
	return &requirementSet{byKey: make(map[entity.StockKey]*stockRequirement)}
}

func (r *requirementSet) add(key entity.StockKey, qty, unitCost decimal.Decimal) {
	if req, ok := r.byKey[key]; ok {
		req.quantity = req.quantity.Add(qty)
		return
	}
	r.byKey[key] = &stockRequirement{key: key, quantity: qty, unitCost: unitCost}
	r.order = append(r.order, key)
}

func (r *requirementSet) list() []*stockRequirement {
	out := make([]*stockRequirement, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.byKey[key])
	}
	return out
}
