package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) domainRepo.SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	// lines, their taxes and the summaries are inserted with the header
	return r.db.WithContext(ctx).Omit("Customer", "Payments").Create(sale).Error
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Lines", orderedLines).
		Preload("Lines.Taxes").
		Preload("TaxSummaries").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Customer").
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(TenantScope(ctx)).
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// lines are immutable once written and need no lock
	err = r.db.WithContext(ctx).
		Where("sale_id = ?", sale.ID).
		Scopes(orderedLines).
		Find(&sale.Lines).Error
	return &sale, err
}

func (r *saleRepository) List(ctx context.Context, params *domainRepo.SaleFilterParams) ([]entity.Sale, int64, error) {
	var sales []entity.Sale
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Sale{}).Scopes(TenantScope(ctx))

	if params.Search != "" {
		query = query.Where("number ILIKE ?", "%"+params.Search+"%")
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.ShiftID != nil {
		query = query.Where("shift_id = ?", *params.ShiftID)
	}
	if params.StartDate != nil {
		query = query.Where("created_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("created_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	p := params.Pagination
	err := query.Offset(p.Offset()).Limit(p.PerPage).
		Preload("Customer").
		Order("created_at DESC").
		Find(&sales).Error

	return sales, total, err
}

func (r *saleRepository) UpdateSettlement(ctx context.Context, id uuid.UUID, status enum.SaleStatus, balance decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&entity.Sale{}).
		Scopes(TenantScope(ctx)).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "balance": balance}).Error
}

func (r *saleRepository) MarkTransmitted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.Sale{}).
		Scopes(TenantScope(ctx)).
		Where("id = ? AND transmitted_at IS NULL", id).
		Update("transmitted_at", at).Error
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

// CreateBatch inserts payments in one statement. IDs are set on the caller's elements.
func (r *paymentRepository) CreateBatch(ctx context.Context, payments []entity.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&payments).Error
}

func (r *paymentRepository) ListBySale(ctx context.Context, saleID uuid.UUID) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

type paymentMethodRepository struct {
	db *gorm.DB
}

// NewPaymentMethodRepository creates a new payment method repository
func NewPaymentMethodRepository(db *gorm.DB) domainRepo.PaymentMethodRepository {
	return &paymentMethodRepository{db: db}
}

func (r *paymentMethodRepository) Create(ctx context.Context, method *entity.PaymentMethod) error {
	return r.db.WithContext(ctx).Create(method).Error
}

func (r *paymentMethodRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.PaymentMethod, error) {
	var methods []entity.PaymentMethod
	if len(ids) == 0 {
		return methods, nil
	}
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Where("id IN ?", ids).
		Find(&methods).Error
	return methods, err
}

func (r *paymentMethodRepository) GetByCode(ctx context.Context, code string) (*entity.PaymentMethod, error) {
	var method entity.PaymentMethod
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		First(&method, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &method, err
}

func (r *paymentMethodRepository) List(ctx context.Context) ([]entity.PaymentMethod, error) {
	var methods []entity.PaymentMethod
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Order("name ASC").
		Find(&methods).Error
	return methods, err
}

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository creates a new document sequence repository
func NewSequenceRepository(db *gorm.DB) domainRepo.SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next increments the counter in a single upsert. The row stays locked until the
// surrounding transaction ends, so numbers are gap-free under concurrency.
func (r *sequenceRepository) Next(ctx context.Context, tenantID uuid.UUID, key string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO document_sequences (tenant_id, key, next_value, updated_at)
		VALUES (?, ?, 2, NOW())
		ON CONFLICT (tenant_id, key)
		DO UPDATE SET next_value = document_sequences.next_value + 1, updated_at = NOW()
		RETURNING next_value - 1`, tenantID, key).
		Scan(&value).Error
	return value, err
}
