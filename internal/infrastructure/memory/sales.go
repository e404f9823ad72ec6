package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

type saleRepository struct{ session }

// copySale detaches a sale from the caller's slices. Loaded relations are dropped.
func copySale(s *entity.Sale) entity.Sale {
	c := *s
	c.Customer = nil
	c.Payments = nil
	c.Lines = make([]entity.SaleLine, len(s.Lines))
	for i, l := range s.Lines {
		l.Taxes = slices.Clone(l.Taxes)
		c.Lines[i] = l
	}
	c.TaxSummaries = slices.Clone(s.TaxSummaries)
	return c
}

func (r *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	for _, id := range d.saleOrder {
		if s := d.sales[id]; s.TenantID == sale.TenantID && s.Number == sale.Number {
			return duplicate("sale number %s", sale.Number)
		}
	}

	newID(&sale.ID)
	now := r.now()
	sale.CreatedAt, sale.UpdatedAt = now, now
	for i := range sale.Lines {
		line := &sale.Lines[i]
		newID(&line.ID)
		line.SaleID = sale.ID
		for j := range line.Taxes {
			newID(&line.Taxes[j].ID)
			line.Taxes[j].SaleLineID = line.ID
		}
	}
	for i := range sale.TaxSummaries {
		newID(&sale.TaxSummaries[i].ID)
		sale.TaxSummaries[i].SaleID = sale.ID
	}

	d.sales[sale.ID] = copySale(sale)
	d.saleOrder = append(d.saleOrder, sale.ID)
	return nil
}

func (r *saleRepository) load(ctx context.Context, id uuid.UUID) *entity.Sale {
	d := r.data()
	stored, ok := d.sales[id]
	if !ok || !visible(ctx, stored.TenantID) {
		return nil
	}
	sale := copySale(&stored)
	return &sale
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	unlock := r.lock()
	defer unlock()

	sale := r.load(ctx, id)
	if sale == nil {
		return nil, nil
	}
	d := r.data()
	for _, p := range d.payments {
		if p.SaleID == sale.ID {
			sale.Payments = append(sale.Payments, p)
		}
	}
	if c, ok := d.customers[sale.CustomerID]; ok {
		sale.Customer = &c
	}
	return sale, nil
}

func (r *saleRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	unlock := r.lock()
	defer unlock()
	return r.load(ctx, id), nil
}

func (r *saleRepository) List(ctx context.Context, params *domainRepo.SaleFilterParams) ([]entity.Sale, int64, error) {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	search := strings.ToLower(params.Search)
	var matched []entity.Sale
	for i := len(d.saleOrder) - 1; i >= 0; i-- {
		s := d.sales[d.saleOrder[i]]
		switch {
		case !visible(ctx, s.TenantID):
			continue
		case search != "" && !strings.Contains(strings.ToLower(s.Number), search):
			continue
		case params.Status != nil && s.Status != *params.Status:
			continue
		case params.CustomerID != nil && s.CustomerID != *params.CustomerID:
			continue
		case params.ShiftID != nil && s.ShiftID != *params.ShiftID:
			continue
		case params.StartDate != nil && s.CreatedAt.Before(*params.StartDate):
			continue
		case params.EndDate != nil && s.CreatedAt.After(*params.EndDate):
			continue
		}
		matched = append(matched, s)
	}

	p := params.Pagination
	if p == nil {
		p = pagination.DefaultPagination()
	}
	start, end := p.Window(len(matched))
	page := make([]entity.Sale, 0, end-start)
	for _, s := range matched[start:end] {
		sale := copySale(&s)
		if c, ok := d.customers[sale.CustomerID]; ok {
			sale.Customer = &c
		}
		page = append(page, sale)
	}
	return page, int64(len(matched)), nil
}

func (r *saleRepository) UpdateSettlement(ctx context.Context, id uuid.UUID, status enum.SaleStatus, balance decimal.Decimal) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	s, ok := d.sales[id]
	if !ok || !visible(ctx, s.TenantID) {
		return nil
	}
	s.Status = status
	s.Balance = balance
	s.UpdatedAt = r.now()
	d.sales[id] = s
	return nil
}

func (r *saleRepository) MarkTransmitted(ctx context.Context, id uuid.UUID, at time.Time) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	s, ok := d.sales[id]
	if !ok || !visible(ctx, s.TenantID) || s.TransmittedAt != nil {
		return nil
	}
	s.TransmittedAt = &at
	d.sales[id] = s
	return nil
}

type paymentRepository struct{ session }

func (r *paymentRepository) CreateBatch(ctx context.Context, payments []entity.Payment) error {
	unlock := r.lock()
	defer unlock()

	now := r.now()
	d := r.data()
	for i := range payments {
		newID(&payments[i].ID)
		payments[i].CreatedAt = now
		d.payments = append(d.payments, payments[i])
	}
	return nil
}

func (r *paymentRepository) ListBySale(ctx context.Context, saleID uuid.UUID) ([]entity.Payment, error) {
	unlock := r.lock()
	defer unlock()

	var out []entity.Payment
	for _, p := range r.data().payments {
		if p.SaleID == saleID && visible(ctx, p.TenantID) {
			out = append(out, p)
		}
	}
	return out, nil
}

type paymentMethodRepository struct{ session }

func (r *paymentMethodRepository) Create(ctx context.Context, method *entity.PaymentMethod) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	for _, m := range d.methods {
		if m.TenantID == method.TenantID && m.Code == method.Code {
			return duplicate("payment method %s", method.Code)
		}
	}
	newID(&method.ID)
	method.CreatedAt, method.UpdatedAt = r.now(), r.now()
	d.methods[method.ID] = *method
	return nil
}

func (r *paymentMethodRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.PaymentMethod, error) {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	var out []entity.PaymentMethod
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		m, ok := d.methods[id]
		if ok && !seen[id] && visible(ctx, m.TenantID) {
			seen[id] = true
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *paymentMethodRepository) GetByCode(ctx context.Context, code string) (*entity.PaymentMethod, error) {
	unlock := r.lock()
	defer unlock()

	for _, m := range r.data().methods {
		if m.Code == code && visible(ctx, m.TenantID) {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *paymentMethodRepository) List(ctx context.Context) ([]entity.PaymentMethod, error) {
	unlock := r.lock()
	defer unlock()

	var out []entity.PaymentMethod
	for _, m := range r.data().methods {
		if visible(ctx, m.TenantID) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b entity.PaymentMethod) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

type sequenceRepository struct{ session }

func (r *sequenceRepository) Next(ctx context.Context, tenantID uuid.UUID, key string) (int64, error) {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	k := sequenceKey{tenantID: tenantID, key: key}
	d.sequences[k]++
	return d.sequences[k], nil
}
