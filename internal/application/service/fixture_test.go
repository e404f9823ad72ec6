package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/infrastructure/database"
	"github.com/sangkips/investify-pos/internal/infrastructure/memory"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/sangkips/investify-pos/pkg/retry"
	"github.com/sangkips/investify-pos/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const supervisorPassword = "s3cret-pass"

// fixture is a seeded store with a cashier holding an open shift
type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store

	tenant     *entity.Tenant
	warehouse  uuid.UUID
	cashier    *entity.User
	supervisor *entity.User
	methods    map[string]entity.PaymentMethod
	vat        entity.TaxRate
	shift      *entity.Shift

	jwt       *utils.JWTManager
	engine    *SaleEngine
	sales     *SaleService
	returns   *ReturnService
	credit    *CreditService
	shifts    *ShiftService
	catalog   *CatalogService
	customers *CustomerService
	auth      *AuthService
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Retryable: repository.IsTransient}
}

func newEngine(t *testing.T, store *memory.Store, blockOversell bool) *SaleEngine {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return &SaleEngine{
		Taxes:     NewTaxEngine(store.Tenants(), "Tax"),
		Allocator: NewPaymentAllocator(),
		Credit:    NewCreditLedger(),
		Stock:     NewStockSynchronizer(blockOversell),
		Shifts:    NewShiftLedger(),
		Numbers: NewDocumentNumberer(store.Tenants(), map[string]string{
			entity.SequenceInvoice:    "INV-",
			entity.SequenceReturn:     "RET-",
			entity.SequenceCreditNote: "NC-",
		}, 6),
		Events: NewEventPublisher(node),
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	cashierRole := store.AddRole("cashier", database.DefaultRoles["cashier"]...)
	supervisorRole := store.AddRole("supervisor", database.DefaultRoles["supervisor"]...)

	hashed, err := utils.HashPassword(supervisorPassword)
	require.NoError(t, err)

	cashier := &entity.User{FirstName: "Ana", LastName: "Till", Email: "cashier@example.com", Active: true, Roles: []entity.Role{cashierRole}}
	supervisor := &entity.User{FirstName: "Sam", LastName: "Lead", Email: "lead@example.com", Password: hashed, Active: true, Roles: []entity.Role{supervisorRole}}
	require.NoError(t, store.Users().Create(ctx, cashier))
	require.NoError(t, store.Users().Create(ctx, supervisor))

	tenant, err := store.SeedTenant(ctx, "test-store", supervisor.ID)
	require.NoError(t, err)
	ctx = infraRepo.WithTenant(ctx, tenant.ID)

	f := &fixture{
		t:          t,
		ctx:        ctx,
		store:      store,
		tenant:     tenant,
		warehouse:  *tenant.Settings.DefaultWarehouseID,
		cashier:    cashier,
		supervisor: supervisor,
		methods:    make(map[string]entity.PaymentMethod),
		jwt:        utils.NewJWTManager("test-secret", time.Hour, 5*time.Minute),
	}

	repos := store.Repositories()
	methods, err := repos.PaymentMethods.List(ctx)
	require.NoError(t, err)
	for _, m := range methods {
		f.methods[m.Code] = m
	}
	rates, err := repos.TaxRates.List(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	f.vat = rates[0]

	f.wire(newEngine(t, store, false), store)

	f.shift, err = f.shifts.Open(ctx, &OpenShiftInput{UserID: cashier.ID, WarehouseID: f.warehouse, OpeningCash: dec("100000")})
	require.NoError(t, err)
	return f
}

// wire builds the services over uow, which may wrap the store
func (f *fixture) wire(engine *SaleEngine, uow repository.UnitOfWork) {
	f.engine = engine
	f.sales = NewSaleService(uow, f.store.Permissions(), f.jwt, engine, testPolicy())
	f.returns = NewReturnService(uow, engine)
	f.credit = NewCreditService(uow, engine)
	f.shifts = NewShiftService(uow, NewShiftLedger(), testPolicy())
	f.catalog = NewCatalogService(uow)
	f.customers = NewCustomerService(f.store.Repositories().Customers)
	f.auth = NewAuthService(f.store.Users(), f.jwt)
}

type productOption func(*CreateProductInput)

func withCost(cost string) productOption {
	return func(in *CreateProductInput) { in.CostPrice = dec(cost) }
}

func withVAT(f *fixture) productOption {
	return func(in *CreateProductInput) { in.TaxRateIDs = []uuid.UUID{f.vat.ID} }
}

func withRecipe(components ...ComponentInput) productOption {
	return func(in *CreateProductInput) {
		in.IsComposite = true
		in.ConsumeRecipe = true
		in.Components = components
	}
}

func untracked() productOption {
	return func(in *CreateProductInput) { in.TrackStock = false }
}

func (f *fixture) product(code, price string, opts ...productOption) *entity.Product {
	f.t.Helper()
	in := &CreateProductInput{UserID: f.supervisor.ID, Code: code, Name: code, Price: dec(price), TrackStock: true}
	for _, opt := range opts {
		opt(in)
	}
	p, err := f.catalog.CreateProduct(f.ctx, in)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) stock(product *entity.Product, qty string) {
	f.t.Helper()
	_, err := f.catalog.SetStockLevel(f.ctx, &SetStockLevelInput{WarehouseID: f.warehouse, ProductID: product.ID, Quantity: dec(qty)})
	require.NoError(f.t, err)
}

func (f *fixture) level(productID uuid.UUID) decimal.Decimal {
	f.t.Helper()
	level, err := f.store.Repositories().Stock.GetLevel(f.ctx, entity.StockKey{WarehouseID: f.warehouse, ProductID: productID})
	require.NoError(f.t, err)
	if level == nil {
		return decimal.Zero
	}
	return level.Quantity
}

func (f *fixture) customer(code string, limit *decimal.Decimal, balance string) *entity.Customer {
	f.t.Helper()
	c, err := f.customers.CreateCustomer(f.ctx, &CreateCustomerInput{UserID: f.cashier.ID, Code: code, Name: code, CreditLimit: limit})
	require.NoError(f.t, err)
	if b := dec(balance); !b.IsZero() {
		require.NoError(f.t, f.store.Repositories().Customers.AdjustBalance(f.ctx, c.ID, b))
		c.CurrentBalance = b
	}
	return c
}

func (f *fixture) pay(code, amount string) CheckoutPaymentInput {
	return CheckoutPaymentInput{PaymentMethodID: f.methods[code].ID, Amount: dec(amount)}
}

func (f *fixture) item(p *entity.Product, qty string) CheckoutItemInput {
	return CheckoutItemInput{ProductID: p.ID, Quantity: dec(qty)}
}

func (f *fixture) checkout(items []CheckoutItemInput, payments ...CheckoutPaymentInput) (*Receipt, error) {
	return f.sales.Checkout(f.ctx, &CheckoutInput{
		UserID:      f.cashier.ID,
		WarehouseID: f.warehouse,
		Items:       items,
		Payments:    payments,
	})
}

func (f *fixture) summaries() map[string]decimal.Decimal {
	f.t.Helper()
	rows, err := f.store.Repositories().Shifts.ListSummaries(f.ctx, f.shift.ID)
	require.NoError(f.t, err)
	out := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.MethodCode] = r.ExpectedAmount
	}
	return out
}

func (f *fixture) currentShift() *entity.Shift {
	f.t.Helper()
	shift, err := f.store.Repositories().Shifts.GetByID(f.ctx, f.shift.ID)
	require.NoError(f.t, err)
	return shift
}

var errOutboxDown = errors.New("outbox unavailable")

type failingEvents struct {
	repository.IntegrationEventRepository
}

func (failingEvents) Create(context.Context, *entity.IntegrationEvent) error {
	return errOutboxDown
}

// outboxFailure runs transactions whose outbox insert fails, the last write of a checkout
type outboxFailure struct {
	repository.UnitOfWork
}

func (u outboxFailure) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	return u.UnitOfWork.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		broken := *repos
		broken.Events = failingEvents{repos.Events}
		return fn(ctx, &broken)
	})
}

func (f *fixture) creditSale(c *entity.Customer, items ...CheckoutItemInput) *Receipt {
	f.t.Helper()
	receipt, err := f.sales.Checkout(f.ctx, &CheckoutInput{
		UserID:        f.cashier.ID,
		CustomerID:    &c.ID,
		WarehouseID:   f.warehouse,
		Items:         items,
		PaymentMethod: "CREDIT",
	})
	require.NoError(f.t, err)
	return receipt
}

func (f *fixture) sale(id uuid.UUID) *entity.Sale {
	f.t.Helper()
	sale, err := f.sales.GetSale(f.ctx, id)
	require.NoError(f.t, err)
	return sale
}

func (f *fixture) methodID(code string) *uuid.UUID {
	id := f.methods[code].ID
	return &id
}

// racingCustomers lets a rival insert the walk-in row between the first lookup
// and our insert, the way a concurrent first sale would
type racingCustomers struct {
	repository.CustomerRepository
	race *walkInRace
}

func (r racingCustomers) GetByCode(ctx context.Context, code string) (*entity.Customer, error) {
	if code != entity.WalkInCustomerCode {
		return r.CustomerRepository.GetByCode(ctx, code)
	}
	r.race.lookups++
	if r.race.lookups == 1 {
		tenantID, _ := infraRepo.GetTenantID(ctx)
		rival := entity.NewWalkInCustomer(tenantID, uuid.New())
		if err := r.CustomerRepository.Create(ctx, rival); err != nil {
			return nil, err
		}
		r.race.winner = rival.ID
		return nil, nil
	}
	if r.race.hideWinner {
		return nil, nil
	}
	return r.CustomerRepository.GetByCode(ctx, code)
}

type walkInRace struct {
	repository.UnitOfWork
	hideWinner bool
	lookups    int
	winner     uuid.UUID
}

func (u *walkInRace) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	return u.UnitOfWork.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		racing := *repos
		racing.Customers = racingCustomers{CustomerRepository: repos.Customers, race: u}
		return fn(ctx, &racing)
	})
}

// labelledTenants reports every tenant with its own label for flat-percentage rates
type labelledTenants struct {
	repository.TenantRepository
	label string
}

func (r labelledTenants) GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	tenant, err := r.TenantRepository.GetByID(ctx, id)
	if tenant != nil {
		tenant.Settings.TaxLabel = r.label
	}
	return tenant, err
}
