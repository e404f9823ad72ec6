package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) (*Store, context.Context, *entity.Tenant) {
	t.Helper()
	store := NewStore()
	tenant, err := store.SeedTenant(context.Background(), "shop", uuid.New())
	require.NoError(t, err)
	return store, infraRepo.WithTenant(context.Background(), tenant.ID), tenant
}

func TestSeedTenantIsIdempotent(t *testing.T) {
	store, ctx, tenant := seeded(t)

	again, err := store.SeedTenant(context.Background(), "shop", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, again.ID)

	methods, err := store.Repositories().PaymentMethods.List(ctx)
	require.NoError(t, err)
	assert.Len(t, methods, 4)

	require.NotNil(t, tenant.Settings.DefaultWarehouseID)
	warehouse, err := store.Repositories().Stock.GetWarehouse(ctx, *tenant.Settings.DefaultWarehouseID)
	require.NoError(t, err)
	require.NotNil(t, warehouse)
	assert.Equal(t, "MAIN", warehouse.Code)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store, ctx, tenant := seeded(t)
	key := entity.StockKey{WarehouseID: *tenant.Settings.DefaultWarehouseID, ProductID: uuid.New()}
	boom := errors.New("boom")

	err := store.WithinTransaction(ctx, func(ctx context.Context, repos *domainRepo.Repositories) error {
		if _, _, err := repos.Stock.Adjust(ctx, key, decimal.NewFromInt(5)); err != nil {
			return err
		}
		if _, err := repos.Sequences.Next(ctx, tenant.ID, entity.SequenceInvoice); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	level, err := store.Repositories().Stock.GetLevel(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, level)

	n, err := store.Repositories().Sequences.Next(ctx, tenant.ID, entity.SequenceInvoice)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestTransactionRollsBackOnPanic(t *testing.T) {
	store, ctx, tenant := seeded(t)

	assert.Panics(t, func() {
		_ = store.WithinTransaction(ctx, func(ctx context.Context, repos *domainRepo.Repositories) error {
			_, _ = repos.Sequences.Next(ctx, tenant.ID, entity.SequenceReturn)
			panic("mid-transaction")
		})
	})

	n, err := store.Repositories().Sequences.Next(ctx, tenant.ID, entity.SequenceReturn)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestTenantScope(t *testing.T) {
	store, ctx, _ := seeded(t)
	other, err := store.SeedTenant(context.Background(), "other", uuid.New())
	require.NoError(t, err)
	otherCtx := infraRepo.WithTenant(context.Background(), other.ID)

	customer := &entity.Customer{TenantID: other.ID, Code: "ACME", Name: "Acme"}
	require.NoError(t, store.Repositories().Customers.Create(otherCtx, customer))

	found, err := store.Repositories().Customers.GetByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = store.Repositories().Customers.GetByID(otherCtx, customer.ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	// codes are unique per tenant only
	require.NoError(t, store.Repositories().Customers.Create(ctx, &entity.Customer{TenantID: mustTenant(t, ctx), Code: "ACME", Name: "Acme"}))
	err = store.Repositories().Customers.Create(otherCtx, &entity.Customer{TenantID: other.ID, Code: "ACME", Name: "Acme"})
	assert.ErrorIs(t, err, domainRepo.ErrDuplicate)
}

func TestShiftStoreAllowsOneOpenShiftPerUser(t *testing.T) {
	store, ctx, tenant := seeded(t)
	userID := uuid.New()
	shifts := store.Repositories().Shifts

	require.NoError(t, shifts.Create(ctx, &entity.Shift{TenantID: tenant.ID, UserID: userID, WarehouseID: *tenant.Settings.DefaultWarehouseID}))
	err := shifts.Create(ctx, &entity.Shift{TenantID: tenant.ID, UserID: userID, WarehouseID: *tenant.Settings.DefaultWarehouseID})
	assert.ErrorIs(t, err, domainRepo.ErrDuplicate)
}

func mustTenant(t *testing.T, ctx context.Context) uuid.UUID {
	t.Helper()
	id, ok := infraRepo.GetTenantID(ctx)
	require.True(t, ok)
	return id
}
