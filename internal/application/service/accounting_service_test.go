package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAccounts = AccountMap{
	Cash:         "1105",
	Bank:         "1110",
	Receivable:   "1305",
	Revenue:      "4135",
	TaxPayable:   "2408",
	CostOfSales:  "6135",
	Inventory:    "1435",
	SalesReturns: "4175",
}

// deliverAll hands every stored event to the accounting service, the way the outbox worker does
func deliverAll(t *testing.T, f *fixture, acct *AccountingService) {
	t.Helper()
	for _, e := range f.store.Events() {
		event := e
		require.NoError(t, acct.HandleEvent(context.Background(), &event))
	}
}

func journals(t *testing.T, f *fixture, sourceType string, sourceID uuid.UUID) map[string]entity.JournalEntry {
	t.Helper()
	entries, err := f.store.Repositories().Journals.ListBySource(f.ctx, sourceType, sourceID)
	require.NoError(t, err)
	out := make(map[string]entity.JournalEntry, len(entries))
	for _, e := range entries {
		debit, credit := e.Totals()
		assert.True(t, debit.Equal(credit), "%s entry unbalanced: %s vs %s", e.Kind, debit, credit)
		out[e.Kind] = e
	}
	return out
}

func amountOn(entry entity.JournalEntry, account string) (debit, credit decimal.Decimal) {
	for _, l := range entry.Lines {
		if l.AccountCode == account {
			debit = debit.Add(l.Debit)
			credit = credit.Add(l.Credit)
		}
	}
	return debit, credit
}

func TestAccountingPostsCashSale(t *testing.T) {
	f := newFixture(t)
	acct := NewAccountingService(f.store, testAccounts)
	p := f.product("COFFEE", "10000", withVAT(f), withCost("4000"))
	f.stock(p, "10")
	receipt, err := f.checkout([]CheckoutItemInput{f.item(p, "2")}, f.pay("CASH", "15000"), f.pay("CARD", "8800"))
	require.NoError(t, err)

	deliverAll(t, f, acct)
	// redelivery posts nothing new
	deliverAll(t, f, acct)

	entries := journals(t, f, JournalSourceSale, receipt.InvoiceID)
	require.Len(t, entries, 2)

	sale := entries[entity.JournalKindSale]
	cash, _ := amountOn(sale, testAccounts.Cash)
	bank, _ := amountOn(sale, testAccounts.Bank)
	_, revenue := amountOn(sale, testAccounts.Revenue)
	_, tax := amountOn(sale, testAccounts.TaxPayable)
	assert.True(t, cash.Equal(dec("15000")))
	assert.True(t, bank.Equal(dec("8800")))
	assert.True(t, revenue.Equal(dec("20000")))
	assert.True(t, tax.Equal(dec("3800")))

	cost := entries[entity.JournalKindCostOfSales]
	cos, _ := amountOn(cost, testAccounts.CostOfSales)
	assert.True(t, cos.Equal(dec("8000")))
}

func TestAccountingPostsCreditLifecycle(t *testing.T) {
	f := newFixture(t)
	acct := NewAccountingService(f.store, testAccounts)
	p := f.product("TV", "50000")
	c := f.customer("ACME", nil, "0")
	receipt := f.creditSale(c, f.item(p, "2"))

	settlement, err := f.credit.Settle(f.ctx, &SettleInput{
		UserID:          f.cashier.ID,
		SaleID:          receipt.InvoiceID,
		PaymentMethodID: f.methods["CASH"].ID,
		Amount:          dec("30000"),
	})
	require.NoError(t, err)

	sale := f.sale(receipt.InvoiceID)
	ret, err := f.returns.Create(f.ctx, &ReturnInput{
		UserID:         f.cashier.ID,
		SaleID:         sale.ID,
		Lines:          []ReturnLineInput{{SaleLineID: sale.Lines[0].ID, Quantity: dec("1")}},
		RefundMethodID: f.methodID("CASH"),
	})
	require.NoError(t, err)

	deliverAll(t, f, acct)

	saleEntry := journals(t, f, JournalSourceSale, sale.ID)[entity.JournalKindSale]
	receivable, _ := amountOn(saleEntry, testAccounts.Receivable)
	assert.True(t, receivable.Equal(dec("100000")), "settlement payments stay out of the sale entry")

	settled := journals(t, f, JournalSourcePayment, settlement.Payment.ID)[entity.JournalKindSettlement]
	cash, _ := amountOn(settled, testAccounts.Cash)
	_, cleared := amountOn(settled, testAccounts.Receivable)
	assert.True(t, cash.Equal(dec("30000")))
	assert.True(t, cleared.Equal(dec("30000")))

	retEntry := journals(t, f, JournalSourceReturn, ret.ID)[entity.JournalKindReturn]
	returns, _ := amountOn(retEntry, testAccounts.SalesReturns)
	_, reduced := amountOn(retEntry, testAccounts.Receivable)
	assert.True(t, returns.Equal(dec("50000")))
	assert.True(t, reduced.Equal(dec("50000")))
	assert.True(t, ret.Refunded.IsZero())
}

func TestAccountingRejectsUnknownEvent(t *testing.T) {
	f := newFixture(t)
	acct := NewAccountingService(f.store, testAccounts)

	err := acct.HandleEvent(context.Background(), &entity.IntegrationEvent{
		TenantID: f.tenant.ID,
		Type:     "inventory.counted",
		Payload:  []byte(`{}`),
	})
	assert.Error(t, err)

	err = acct.HandleEvent(context.Background(), &entity.IntegrationEvent{
		TenantID: f.tenant.ID,
		Type:     entity.EventSaleCompleted,
		Payload:  []byte(`{"sale_id":`),
	})
	assert.Error(t, err)
}
