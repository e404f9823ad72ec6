package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type returnRepository struct {
	db *gorm.DB
}

// NewReturnRepository creates a new sale return repository
func NewReturnRepository(db *gorm.DB) domainRepo.ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(ctx context.Context, ret *entity.SaleReturn) error {
	return r.db.WithContext(ctx).Omit("CreditNote").Create(ret).Error
}

func (r *returnRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.SaleReturn, error) {
	var ret entity.SaleReturn
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Lines").Preload("CreditNote").
		First(&ret, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ret, err
}

func (r *returnRepository) CreateCreditNote(ctx context.Context, note *entity.CreditNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *returnRepository) ReturnedQuantities(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		SaleLineID uuid.UUID
		Quantity   decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Table("sale_return_lines").
		Select("sale_return_lines.sale_line_id, SUM(sale_return_lines.quantity) AS quantity").
		Joins("JOIN sale_returns ON sale_returns.id = sale_return_lines.return_id").
		Where("sale_returns.sale_id = ?", saleID).
		Group("sale_return_lines.sale_line_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.SaleLineID] = row.Quantity
	}
	return out, nil
}
