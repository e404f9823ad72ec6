package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

type customerRepository struct{ session }

func copyCustomer(c entity.Customer) entity.Customer {
	if c.CreditLimit != nil {
		limit := *c.CreditLimit
		c.CreditLimit = &limit
	}
	return c
}

func (r *customerRepository) insert(customer *entity.Customer) error {
	d := r.data()
	for _, c := range d.customers {
		if c.TenantID == customer.TenantID && c.Code == customer.Code {
			return duplicate("customer code %s", customer.Code)
		}
	}
	newID(&customer.ID)
	customer.CreatedAt, customer.UpdatedAt = r.now(), r.now()
	d.customers[customer.ID] = copyCustomer(*customer)
	return nil
}

func (r *customerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	unlock := r.lock()
	defer unlock()
	return r.insert(customer)
}

func (r *customerRepository) CreateWalkIn(ctx context.Context, customer *entity.Customer) error {
	unlock := r.lock()
	defer unlock()
	return r.insert(customer)
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	unlock := r.lock()
	defer unlock()

	c, ok := r.data().customers[id]
	if !ok || !visible(ctx, c.TenantID) {
		return nil, nil
	}
	c = copyCustomer(c)
	return &c, nil
}

func (r *customerRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	return r.GetByID(ctx, id)
}

func (r *customerRepository) GetByCode(ctx context.Context, code string) (*entity.Customer, error) {
	unlock := r.lock()
	defer unlock()

	for _, c := range r.data().customers {
		if c.Code == code && visible(ctx, c.TenantID) {
			c = copyCustomer(c)
			return &c, nil
		}
	}
	return nil, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *entity.Customer) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	stored, ok := d.customers[customer.ID]
	if !ok || !visible(ctx, stored.TenantID) {
		return nil
	}
	// the running balance only moves through AdjustBalance
	customer.CurrentBalance = stored.CurrentBalance
	customer.UpdatedAt = r.now()
	d.customers[customer.ID] = copyCustomer(*customer)
	return nil
}

func (r *customerRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	c, ok := d.customers[id]
	if !ok {
		return nil
	}
	c.CurrentBalance = c.CurrentBalance.Add(delta)
	c.UpdatedAt = r.now()
	d.customers[id] = c
	return nil
}

func (r *customerRepository) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error) {
	unlock := r.lock()
	defer unlock()

	search = strings.ToLower(search)
	contains := func(s *string) bool {
		return s != nil && strings.Contains(strings.ToLower(*s), search)
	}

	var matched []entity.Customer
	for _, c := range r.data().customers {
		if !visible(ctx, c.TenantID) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Code), search) &&
			!contains(c.Email) && !contains(c.Phone) && !contains(c.TaxID) {
			continue
		}
		matched = append(matched, copyCustomer(c))
	}
	slices.SortFunc(matched, func(a, b entity.Customer) int { return strings.Compare(a.Name, b.Name) })

	params.Validate()
	start, end := params.Window(len(matched))
	return matched[start:end], int64(len(matched)), nil
}

type shiftRepository struct{ session }

func (r *shiftRepository) Create(ctx context.Context, shift *entity.Shift) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	if shift.Status == enum.ShiftStatusOpen {
		for _, s := range d.shifts {
			if s.UserID == shift.UserID && s.IsOpen() {
				return duplicate("open shift for user %s", shift.UserID)
			}
		}
	}
	newID(&shift.ID)
	shift.CreatedAt, shift.UpdatedAt = r.now(), r.now()
	stored := *shift
	stored.Summaries = nil
	d.shifts[shift.ID] = stored
	return nil
}

func (r *shiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Shift, error) {
	unlock := r.lock()
	defer unlock()

	s, ok := r.data().shifts[id]
	if !ok || !visible(ctx, s.TenantID) {
		return nil, nil
	}
	return &s, nil
}

func (r *shiftRepository) GetOpenByUser(ctx context.Context, userID uuid.UUID) (*entity.Shift, error) {
	unlock := r.lock()
	defer unlock()

	for _, s := range r.data().shifts {
		if s.UserID == userID && s.IsOpen() && visible(ctx, s.TenantID) {
			return &s, nil
		}
	}
	return nil, nil
}

func (r *shiftRepository) Close(ctx context.Context, shift *entity.Shift) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	s, ok := d.shifts[shift.ID]
	if !ok || !visible(ctx, s.TenantID) || !s.IsOpen() {
		return nil
	}
	s.Status = shift.Status
	s.CountedCash = shift.CountedCash
	s.Difference = shift.Difference
	s.Notes = shift.Notes
	s.ClosedAt = shift.ClosedAt
	s.UpdatedAt = r.now()
	d.shifts[s.ID] = s
	return nil
}

func (r *shiftRepository) AddExpectedCash(ctx context.Context, shiftID uuid.UUID, delta decimal.Decimal) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	s, ok := d.shifts[shiftID]
	if !ok {
		return nil
	}
	s.ExpectedCash = s.ExpectedCash.Add(delta)
	s.UpdatedAt = r.now()
	d.shifts[shiftID] = s
	return nil
}

func (r *shiftRepository) UpsertSummary(ctx context.Context, shiftID uuid.UUID, method *entity.PaymentMethod, delta decimal.Decimal) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	key := summaryKey{shiftID: shiftID, methodID: method.ID}
	summary, ok := d.summaries[key]
	if !ok {
		summary = entity.ShiftSummary{
			ID:              uuid.New(),
			ShiftID:         shiftID,
			PaymentMethodID: method.ID,
			MethodCode:      method.Code,
		}
	}
	summary.ExpectedAmount = summary.ExpectedAmount.Add(delta)
	summary.UpdatedAt = r.now()
	d.summaries[key] = summary
	return nil
}

func (r *shiftRepository) ListSummaries(ctx context.Context, shiftID uuid.UUID) ([]entity.ShiftSummary, error) {
	unlock := r.lock()
	defer unlock()

	var out []entity.ShiftSummary
	for key, summary := range r.data().summaries {
		if key.shiftID == shiftID {
			out = append(out, summary)
		}
	}
	slices.SortFunc(out, func(a, b entity.ShiftSummary) int { return strings.Compare(a.MethodCode, b.MethodCode) })
	return out, nil
}

func (r *shiftRepository) CreateCashMovement(ctx context.Context, movement *entity.CashMovement) error {
	unlock := r.lock()
	defer unlock()

	newID(&movement.ID)
	movement.CreatedAt = r.now()
	d := r.data()
	d.cash = append(d.cash, *movement)
	return nil
}

func (r *shiftRepository) ListCashMovements(ctx context.Context, shiftID uuid.UUID) ([]entity.CashMovement, error) {
	unlock := r.lock()
	defer unlock()

	var out []entity.CashMovement
	for _, m := range r.data().cash {
		if m.ShiftID == shiftID && visible(ctx, m.TenantID) {
			out = append(out, m)
		}
	}
	return out, nil
}
