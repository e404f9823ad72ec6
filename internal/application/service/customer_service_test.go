package service

import (
	"testing"

	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerLifecycle(t *testing.T) {
	f := newFixture(t)
	email := "buyer@acme.test"
	limit := dec("5000")

	c, err := f.customers.CreateCustomer(f.ctx, &CreateCustomerInput{UserID: f.cashier.ID, Code: " acme ", Name: "Acme", Email: &email, CreditLimit: &limit})
	require.NoError(t, err)
	assert.Equal(t, "ACME", c.Code)

	_, err = f.customers.CreateCustomer(f.ctx, &CreateCustomerInput{UserID: f.cashier.ID, Code: "ACME", Name: "Again"})
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))

	_, err = f.customers.CreateCustomer(f.ctx, &CreateCustomerInput{UserID: f.cashier.ID, Code: "walk-in", Name: "Sneaky"})
	require.Error(t, err)
	assert.Equal(t, "code", apperror.GetAppError(err).Field)

	page, err := f.customers.ListCustomers(f.ctx, &pagination.PaginationParams{}, "acme.test")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, c.ID, page.Items[0].ID)

	require.NoError(t, f.store.Repositories().Customers.AdjustBalance(f.ctx, c.ID, dec("1200")))
	name := "Acme Ltd"
	updated, err := f.customers.UpdateCustomer(f.ctx, &UpdateCustomerInput{ID: c.ID, Name: &name, ClearCreditLimit: true})
	require.NoError(t, err)
	assert.Nil(t, updated.CreditLimit)

	stored, err := f.customers.GetCustomer(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", stored.Name)
	assert.True(t, stored.CurrentBalance.Equal(dec("1200")), "edits keep the running balance")
}

func TestWalkInCustomerHasNoCredit(t *testing.T) {
	f := newFixture(t)
	p := f.product("COFFEE", "1000")
	_, err := f.checkout([]CheckoutItemInput{f.item(p, "1")}, f.pay("CASH", "1000"))
	require.NoError(t, err)

	walkIn, err := f.store.Repositories().Customers.GetByCode(f.ctx, entity.WalkInCustomerCode)
	require.NoError(t, err)
	require.NotNil(t, walkIn)

	limit := dec("100")
	_, err = f.customers.UpdateCustomer(f.ctx, &UpdateCustomerInput{ID: walkIn.ID, CreditLimit: &limit})
	require.Error(t, err)
	assert.Equal(t, "credit_limit", apperror.GetAppError(err).Field)

	// a second sale reuses the same walk-in row
	_, err = f.checkout([]CheckoutItemInput{f.item(p, "1")}, f.pay("CASH", "1000"))
	require.NoError(t, err)
	page, err := f.customers.ListCustomers(f.ctx, &pagination.PaginationParams{}, "walk")
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Pagination.Total)
}
