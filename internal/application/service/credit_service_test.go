package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleInInstalments(t *testing.T) {
	f := newFixture(t)
	p := f.product("TV", "50000")
	c := f.customer("ACME", nil, "0")
	receipt := f.creditSale(c, f.item(p, "1"))

	first, err := f.credit.Settle(f.ctx, &SettleInput{
		UserID:          f.cashier.ID,
		SaleID:          receipt.InvoiceID,
		PaymentMethodID: f.methods["CASH"].ID,
		Amount:          dec("20000"),
	})
	require.NoError(t, err)
	assert.Equal(t, enum.SaleStatusCreditPending, first.Status)
	assert.True(t, first.Balance.Equal(dec("30000")))
	require.NotNil(t, first.Payment)
	assert.NotEqual(t, uuid.Nil, first.Payment.ID)

	assert.True(t, f.summaries()["CASH"].Equal(dec("20000")))
	assert.True(t, f.currentShift().ExpectedCash.Equal(dec("120000")))

	second, err := f.credit.Settle(f.ctx, &SettleInput{
		UserID:          f.cashier.ID,
		SaleID:          receipt.InvoiceID,
		PaymentMethodID: f.methods["TRANSFER"].ID,
		Amount:          dec("30000"),
	})
	require.NoError(t, err)
	assert.Equal(t, enum.SaleStatusPaid, second.Status)
	assert.True(t, second.Balance.IsZero())

	sale := f.sale(receipt.InvoiceID)
	assert.Equal(t, enum.SaleStatusPaid, sale.Status)
	assert.Len(t, sale.Payments, 2)
	assert.True(t, sale.Customer.CurrentBalance.IsZero())

	var settled int
	for _, e := range f.store.Events() {
		if e.Type == entity.EventCreditSettled {
			settled++
		}
	}
	assert.Equal(t, 2, settled)

	_, err = f.credit.Settle(f.ctx, &SettleInput{
		UserID:          f.cashier.ID,
		SaleID:          receipt.InvoiceID,
		PaymentMethodID: f.methods["CASH"].ID,
		Amount:          dec("1"),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeSaleNotPending))
}

func TestSettleRejectsOverpayment(t *testing.T) {
	f := newFixture(t)
	p := f.product("TV", "50000")
	c := f.customer("ACME", nil, "0")
	receipt := f.creditSale(c, f.item(p, "1"))

	_, err := f.credit.Settle(f.ctx, &SettleInput{
		UserID:          f.cashier.ID,
		SaleID:          receipt.InvoiceID,
		PaymentMethodID: f.methods["CASH"].ID,
		Amount:          dec("60000"),
	})
	require.Error(t, err)
	assert.Equal(t, "amount", apperror.GetAppError(err).Field)

	_, err = f.credit.Settle(f.ctx, &SettleInput{
		UserID:          f.cashier.ID,
		SaleID:          receipt.InvoiceID,
		PaymentMethodID: f.methods["CREDIT"].ID,
		Amount:          dec("100"),
	})
	require.Error(t, err)
	assert.Equal(t, "payment_method_id", apperror.GetAppError(err).Field)

	assert.True(t, f.sale(receipt.InvoiceID).Balance.Equal(dec("50000")))
}

func TestSettleNeedsOpenShift(t *testing.T) {
	f := newFixture(t)
	p := f.product("TV", "50000")
	c := f.customer("ACME", nil, "0")
	receipt := f.creditSale(c, f.item(p, "1"))
	_, err := f.shifts.Close(f.ctx, &CloseShiftInput{UserID: f.cashier.ID, CountedCash: dec("100000")})
	require.NoError(t, err)

	_, err = f.credit.Settle(f.ctx, &SettleInput{
		UserID:          f.cashier.ID,
		SaleID:          receipt.InvoiceID,
		PaymentMethodID: f.methods["CASH"].ID,
		Amount:          dec("100"),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeShiftNotOpen))
}

func TestCreditLedgerCheck(t *testing.T) {
	ledger := NewCreditLedger()
	zero := dec("0")
	limit := dec("1000")

	tests := []struct {
		name     string
		customer *entity.Customer
		total    string
		code     string
	}{
		{name: "walk-in", customer: &entity.Customer{IsWalkIn: true}, total: "10", code: apperror.CodeCreditNotAllowed},
		{name: "zero limit", customer: &entity.Customer{Code: "C1", CreditLimit: &zero}, total: "10", code: apperror.CodeCreditNotAllowed},
		{name: "unlimited", customer: &entity.Customer{Code: "C2", CurrentBalance: dec("1000000")}, total: "10"},
		{name: "at limit", customer: &entity.Customer{Code: "C3", CreditLimit: &limit, CurrentBalance: dec("990")}, total: "10"},
		{name: "over limit", customer: &entity.Customer{Code: "C4", CreditLimit: &limit, CurrentBalance: dec("990.01")}, total: "10", code: apperror.CodeCreditLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.Check(tt.customer, dec(tt.total))
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}
