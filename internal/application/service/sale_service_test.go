package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutCashWithChange(t *testing.T) {
	f := newFixture(t)
	p := f.product("COFFEE", "10000", withVAT(f))
	f.stock(p, "10")

	receipt, err := f.checkout([]CheckoutItemInput{f.item(p, "2")}, f.pay("CASH", "25000"))
	require.NoError(t, err)

	assert.Equal(t, "INV-000001", receipt.InvoiceNumber)
	assert.True(t, receipt.Total.Equal(dec("23800")), "total %s", receipt.Total)
	assert.True(t, receipt.Change.Equal(dec("1200")), "change %s", receipt.Change)
	assert.Equal(t, enum.SaleStatusPaid, receipt.Status)

	sale, err := f.sales.GetSale(f.ctx, receipt.InvoiceID)
	require.NoError(t, err)
	assert.True(t, sale.Subtotal.Equal(dec("20000")))
	assert.True(t, sale.TaxTotal.Equal(dec("3800")))
	require.Len(t, sale.Payments, 1)
	assert.True(t, sale.Payments[0].Amount.Equal(dec("23800")))
	assert.True(t, sale.Payments[0].Tendered.Equal(dec("25000")))
	require.Len(t, sale.TaxSummaries, 1)
	assert.Equal(t, f.vat.ID.String(), sale.TaxSummaries[0].RateKey)
	require.NotNil(t, sale.Customer)
	assert.True(t, sale.Customer.IsWalkIn)

	assert.True(t, f.summaries()["CASH"].Equal(dec("23800")))
	assert.True(t, f.currentShift().ExpectedCash.Equal(dec("123800")))
	assert.True(t, f.level(p.ID).Equal(dec("8")))

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventSaleCompleted, events[0].Type)
	assert.Equal(t, sale.ID, events[0].AggregateID)
}

func TestCheckoutFreeSaleWithLegacyMethod(t *testing.T) {
	f := newFixture(t)
	p := f.product("SAMPLE", "0")
	f.stock(p, "5")

	receipt, err := f.sales.Checkout(f.ctx, &CheckoutInput{
		UserID:        f.cashier.ID,
		WarehouseID:   f.warehouse,
		Items:         []CheckoutItemInput{f.item(p, "1")},
		PaymentMethod: "CASH",
	})
	require.NoError(t, err)
	assert.True(t, receipt.Total.IsZero())
	assert.True(t, receipt.Change.IsZero())
	assert.Equal(t, enum.SaleStatusPaid, receipt.Status)

	sale := f.sale(receipt.InvoiceID)
	assert.Empty(t, sale.Payments)
	assert.True(t, f.currentShift().ExpectedCash.Equal(dec("100000")))
	assert.True(t, f.level(p.ID).Equal(dec("4")))

	// a tender of nothing against a real total is a shortfall, not a bad field
	coffee := f.product("COFFEE", "1000")
	nothing := decimal.Zero
	_, err = f.sales.Checkout(f.ctx, &CheckoutInput{
		UserID:        f.cashier.ID,
		WarehouseID:   f.warehouse,
		Items:         []CheckoutItemInput{f.item(coffee, "1")},
		PaymentMethod: "CASH",
		CashReceived:  &nothing,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientFunds), "got %v", err)
}

func TestCheckoutSplitTender(t *testing.T) {
	f := newFixture(t)
	p := f.product("COFFEE", "10000", withVAT(f))

	receipt, err := f.checkout([]CheckoutItemInput{f.item(p, "2")}, f.pay("CASH", "15000"), f.pay("CARD", "8800"))
	require.NoError(t, err)
	assert.True(t, receipt.Change.IsZero())

	sums := f.summaries()
	assert.True(t, sums["CASH"].Equal(dec("15000")))
	assert.True(t, sums["CARD"].Equal(dec("8800")))
	assert.True(t, f.currentShift().ExpectedCash.Equal(dec("115000")))
}

func TestCheckoutRejectsShortTender(t *testing.T) {
	f := newFixture(t)
	p := f.product("COFFEE", "10000", withVAT(f))

	_, err := f.checkout([]CheckoutItemInput{f.item(p, "2")}, f.pay("CASH", "20000"))
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientFunds))
}

func TestCheckoutRejectsChangeFromCard(t *testing.T) {
	f := newFixture(t)
	p := f.product("COFFEE", "10000", withVAT(f))

	_, err := f.checkout([]CheckoutItemInput{f.item(p, "2")}, f.pay("CARD", "25000"))
	assert.True(t, apperror.HasCode(err, apperror.CodeChangeRequiresCash))
}

func TestCheckoutRequiresOpenShift(t *testing.T) {
	f := newFixture(t)
	p := f.product("COFFEE", "10000")
	_, err := f.shifts.Close(f.ctx, &CloseShiftInput{UserID: f.cashier.ID, CountedCash: dec("100000")})
	require.NoError(t, err)

	_, err = f.checkout([]CheckoutItemInput{f.item(p, "1")}, f.pay("CASH", "10000"))
	assert.True(t, apperror.HasCode(err, apperror.CodeShiftNotOpen))
}

func TestCheckoutCreditWithinLimit(t *testing.T) {
	f := newFixture(t)
	p := f.product("TV", "50000")

	limit := dec("200000")
	c := f.customer("ACME", &limit, "60000")

	receipt, err := f.sales.Checkout(f.ctx, &CheckoutInput{
		UserID:      f.cashier.ID,
		CustomerID:  &c.ID,
		WarehouseID: f.warehouse,
		Items:       []CheckoutItemInput{f.item(p, "1")},
		Payments:    []CheckoutPaymentInput{f.pay("CREDIT", "50000")},
	})
	require.NoError(t, err)
	assert.Equal(t, enum.SaleStatusCreditPending, receipt.Status)

	stored, err := f.customers.GetCustomer(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentBalance.Equal(dec("110000")), "balance %s", stored.CurrentBalance)

	sale, err := f.sales.GetSale(f.ctx, receipt.InvoiceID)
	require.NoError(t, err)
	assert.True(t, sale.Balance.Equal(dec("50000")))
	assert.Empty(t, sale.Payments)
	assert.Empty(t, f.summaries())
}

func TestCheckoutCreditOverLimit(t *testing.T) {
	f := newFixture(t)
	p := f.product("TV", "50000")

	limit := dec("100000")
	c := f.customer("ACME", &limit, "60000")

	_, err := f.sales.Checkout(f.ctx, &CheckoutInput{
		UserID:        f.cashier.ID,
		CustomerID:    &c.ID,
		WarehouseID:   f.warehouse,
		Items:         []CheckoutItemInput{f.item(p, "1")},
		PaymentMethod: "CREDIT",
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeCreditLimitExceeded))

	stored, err := f.customers.GetCustomer(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentBalance.Equal(dec("60000")))
}

func TestCheckoutCreditNeedsRegisteredCustomer(t *testing.T) {
	f := newFixture(t)
	p := f.product("TV", "50000")

	_, err := f.checkout([]CheckoutItemInput{f.item(p, "1")}, f.pay("CREDIT", "50000"))
	assert.True(t, apperror.HasCode(err, apperror.CodeCreditNotAllowed))
}

func TestCheckoutCreditCannotBeSplit(t *testing.T) {
	f := newFixture(t)
	p := f.product("TV", "50000")
	c := f.customer("ACME", nil, "0")

	_, err := f.sales.Checkout(f.ctx, &CheckoutInput{
		UserID:      f.cashier.ID,
		CustomerID:  &c.ID,
		WarehouseID: f.warehouse,
		Items:       []CheckoutItemInput{f.item(p, "1")},
		Payments:    []CheckoutPaymentInput{f.pay("CASH", "10000"), f.pay("CREDIT", "40000")},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCheckoutExpandsRecipe(t *testing.T) {
	f := newFixture(t)
	a := f.product("FLOUR", "100", withCost("40"))
	b := f.product("SUGAR", "100", withCost("30"))
	cake := f.product("CAKE", "5000", withRecipe(
		ComponentInput{IngredientID: a.ID, Quantity: dec("2")},
		ComponentInput{IngredientID: b.ID, Quantity: dec("1")},
	))
	f.stock(a, "10")
	f.stock(b, "10")

	receipt, err := f.checkout([]CheckoutItemInput{f.item(cake, "3")}, f.pay("CASH", "15000"))
	require.NoError(t, err)

	assert.True(t, f.level(a.ID).Equal(dec("4")))
	assert.True(t, f.level(b.ID).Equal(dec("7")))
	assert.True(t, f.level(cake.ID).IsZero())

	movements, err := f.store.Repositories().Stock.ListMovementsBySource(f.ctx, StockSourceSale, receipt.InvoiceID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, a.ID, movements[0].ProductID)
	assert.True(t, movements[0].Quantity.Equal(dec("6")))
	assert.True(t, movements[0].QuantityBefore.Equal(dec("10")))
	assert.True(t, movements[0].QuantityAfter.Equal(dec("4")))
}

func TestCheckoutRecipeCycleAborts(t *testing.T) {
	f := newFixture(t)
	base := f.product("BASE", "100")
	mix := f.product("MIX", "100", withRecipe(ComponentInput{IngredientID: base.ID, Quantity: dec("1")}))
	cake := f.product("CAKE", "500", withRecipe(ComponentInput{IngredientID: mix.ID, Quantity: dec("2")}))
	f.store.SetComponents(mix.ID, []entity.RecipeComponent{{ProductID: mix.ID, IngredientID: cake.ID, Quantity: dec("1")}})

	_, err := f.checkout([]CheckoutItemInput{f.item(cake, "1")}, f.pay("CASH", "500"))
	assert.True(t, apperror.HasCode(err, apperror.CodeRecipeCycle))
	assert.Empty(t, f.store.Events())
	assert.True(t, f.level(base.ID).IsZero())
}

func TestCheckoutOversellPolicy(t *testing.T) {
	f := newFixture(t)
	p := f.product("COFFEE", "1000")
	f.stock(p, "1")

	_, err := f.checkout([]CheckoutItemInput{f.item(p, "3")}, f.pay("CASH", "3000"))
	require.NoError(t, err)
	assert.True(t, f.level(p.ID).Equal(dec("-2")))

	f.wire(newEngine(t, f.store, true), f.store)
	_, err = f.checkout([]CheckoutItemInput{f.item(p, "1")}, f.pay("CASH", "1000"))
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.True(t, f.level(p.ID).Equal(dec("-2")))
}

func TestCheckoutUntrackedProductLeavesNoMovement(t *testing.T) {
	f := newFixture(t)
	p := f.product("SERVICE", "1000", untracked())

	receipt, err := f.checkout([]CheckoutItemInput{f.item(p, "1")}, f.pay("CASH", "1000"))
	require.NoError(t, err)

	movements, err := f.store.Repositories().Stock.ListMovementsBySource(f.ctx, StockSourceSale, receipt.InvoiceID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestCheckoutFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	p := f.product("COFFEE", "10000", withVAT(f))
	f.stock(p, "10")

	f.wire(f.engine, outboxFailure{f.store})
	_, err := f.checkout([]CheckoutItemInput{f.item(p, "2")}, f.pay("CASH", "25000"))
	require.ErrorIs(t, err, errOutboxDown)

	sales, err := f.sales.ListSales(f.ctx, &repository.SaleFilterParams{})
	require.NoError(t, err)
	assert.Zero(t, sales.Pagination.Total)
	assert.True(t, f.level(p.ID).Equal(dec("10")))
	assert.Empty(t, f.summaries())
	assert.True(t, f.currentShift().ExpectedCash.Equal(dec("100000")))
	walkIn, err := f.store.Repositories().Customers.GetByCode(f.ctx, entity.WalkInCustomerCode)
	require.NoError(t, err)
	assert.Nil(t, walkIn)

	f.wire(f.engine, f.store)
	receipt, err := f.checkout([]CheckoutItemInput{f.item(p, "2")}, f.pay("CASH", "25000"))
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", receipt.InvoiceNumber)
}

func TestCheckoutWalkInRace(t *testing.T) {
	t.Run("loser reuses the winner's row", func(t *testing.T) {
		f := newFixture(t)
		p := f.product("COFFEE", "1000")
		race := &walkInRace{UnitOfWork: f.store}
		f.wire(f.engine, race)

		receipt, err := f.checkout([]CheckoutItemInput{f.item(p, "1")}, f.pay("CASH", "1000"))
		require.NoError(t, err)
		assert.Equal(t, 2, race.lookups)
		require.NotEqual(t, uuid.Nil, race.winner)

		sale := f.sale(receipt.InvoiceID)
		assert.Equal(t, race.winner, sale.CustomerID)

		page, err := f.customers.ListCustomers(f.ctx, pagination.DefaultPagination(), entity.WalkInCustomerCode)
		require.NoError(t, err)
		assert.EqualValues(t, 1, page.Pagination.Total)
	})

	t.Run("missing winner aborts the sale", func(t *testing.T) {
		f := newFixture(t)
		p := f.product("COFFEE", "1000")
		f.stock(p, "3")
		f.wire(f.engine, &walkInRace{UnitOfWork: f.store, hideWinner: true})

		_, err := f.checkout([]CheckoutItemInput{f.item(p, "1")}, f.pay("CASH", "1000"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "walk-in customer")

		sales, err := f.sales.ListSales(f.ctx, &repository.SaleFilterParams{})
		require.NoError(t, err)
		assert.Zero(t, sales.Pagination.Total)
		assert.True(t, f.level(p.ID).Equal(dec("3")))
	})
}

func TestCheckoutTaxSummariesAddRoundedLines(t *testing.T) {
	f := newFixture(t)
	p := f.product("CANDY", "33.33", withVAT(f))
	q := f.product("GUM", "66.67", withVAT(f))

	receipt, err := f.checkout([]CheckoutItemInput{f.item(p, "1"), f.item(q, "1")}, f.pay("CASH", "200"))
	require.NoError(t, err)

	sale, err := f.sales.GetSale(f.ctx, receipt.InvoiceID)
	require.NoError(t, err)

	// 6.3327 and 12.6673 round to 6.33 and 12.67 per line
	require.Len(t, sale.TaxSummaries, 1)
	lineSum := decimal.Zero
	for _, l := range sale.Lines {
		lineSum = lineSum.Add(l.TaxTotal)
	}
	assert.True(t, sale.TaxSummaries[0].Amount.Equal(lineSum))
	assert.True(t, sale.TaxTotal.Equal(dec("19.00")))
	assert.True(t, sale.Total.Equal(sale.Subtotal.Sub(sale.Discount).Add(sale.TaxTotal)))
}

func TestCheckoutLegacyTaxRate(t *testing.T) {
	f := newFixture(t)
	p := f.product("BREAD", "1000")

	rate := dec("5")
	receipt, err := f.sales.Checkout(f.ctx, &CheckoutInput{
		UserID:        f.cashier.ID,
		WarehouseID:   f.warehouse,
		Items:         []CheckoutItemInput{{ProductID: p.ID, Quantity: dec("2"), TaxRate: &rate}},
		PaymentMethod: "CASH",
	})
	require.NoError(t, err)
	assert.True(t, receipt.Total.Equal(dec("2100")))
	assert.True(t, receipt.Change.IsZero())

	sale, err := f.sales.GetSale(f.ctx, receipt.InvoiceID)
	require.NoError(t, err)
	require.Len(t, sale.TaxSummaries, 1)
	assert.Equal(t, "legacy:5", sale.TaxSummaries[0].RateKey)
	assert.Equal(t, "Tax 5%", sale.TaxSummaries[0].Name)
}

func TestCheckoutLegacyTaxRateTakesTenantLabel(t *testing.T) {
	f := newFixture(t)
	f.engine.Taxes = NewTaxEngine(labelledTenants{TenantRepository: f.store.Tenants(), label: "IVA"}, "Tax")
	p := f.product("BREAD", "1000")

	rate := dec("19")
	receipt, err := f.sales.Checkout(f.ctx, &CheckoutInput{
		UserID:        f.cashier.ID,
		WarehouseID:   f.warehouse,
		Items:         []CheckoutItemInput{{ProductID: p.ID, Quantity: dec("1"), TaxRate: &rate}},
		PaymentMethod: "CASH",
	})
	require.NoError(t, err)

	sale := f.sale(receipt.InvoiceID)
	require.Len(t, sale.TaxSummaries, 1)
	assert.Equal(t, "IVA 19%", sale.TaxSummaries[0].Name)
	require.Len(t, sale.Lines, 1)
	require.Len(t, sale.Lines[0].Taxes, 1)
	assert.Equal(t, "IVA 19%", sale.Lines[0].Taxes[0].Name)
}

func TestCheckoutEmptyAppliedTaxesIsUntaxed(t *testing.T) {
	f := newFixture(t)
	p := f.product("BOOK", "1000", withVAT(f))

	receipt, err := f.sales.Checkout(f.ctx, &CheckoutInput{
		UserID:      f.cashier.ID,
		WarehouseID: f.warehouse,
		Items:       []CheckoutItemInput{{ProductID: p.ID, Quantity: dec("1"), AppliedTaxes: []uuid.UUID{}}},
		Payments:    []CheckoutPaymentInput{f.pay("CASH", "1000")},
	})
	require.NoError(t, err)
	assert.True(t, receipt.Total.Equal(dec("1000")))
}

func TestCheckoutDiscountAuthorization(t *testing.T) {
	f := newFixture(t)
	p := f.product("COFFEE", "10000")

	input := &CheckoutInput{
		UserID:      f.cashier.ID,
		WarehouseID: f.warehouse,
		Items:       []CheckoutItemInput{f.item(p, "1")},
		Payments:    []CheckoutPaymentInput{f.pay("CASH", "9000")},
		Discount:    dec("1000"),
	}
	_, err := f.sales.Checkout(f.ctx, input)
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, apperror.CodeDiscountNotAuthorized, appErr.ErrorCode)
	assert.Equal(t, 403, appErr.Code)

	override, err := f.auth.IssueOverride(f.ctx, &OverrideInput{
		RequestedBy: f.cashier.ID,
		Email:       f.supervisor.Email,
		Password:    supervisorPassword,
	})
	require.NoError(t, err)

	input.DiscountOverrideToken = override.Token
	receipt, err := f.sales.Checkout(f.ctx, input)
	require.NoError(t, err)
	assert.True(t, receipt.Total.Equal(dec("9000")))

	sale, err := f.sales.GetSale(f.ctx, receipt.InvoiceID)
	require.NoError(t, err)
	require.NotNil(t, sale.DiscountAuthBy)
	assert.Equal(t, f.supervisor.ID, *sale.DiscountAuthBy)
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.sales.Checkout(f.ctx, &CheckoutInput{UserID: f.cashier.ID})
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.ErrorCode)
	assert.GreaterOrEqual(t, len(appErr.Errors), 3)

	_, err = f.checkout([]CheckoutItemInput{{ProductID: uuid.New(), Quantity: dec("1")}}, f.pay("CASH", "10"))
	appErr = apperror.GetAppError(err)
	assert.Equal(t, "items[0].product_id", appErr.Field)
}

func TestCheckoutNumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	p := f.product("COFFEE", "1000")

	var numbers []string
	for i := 0; i < 3; i++ {
		receipt, err := f.checkout([]CheckoutItemInput{f.item(p, "1")}, f.pay("CASH", "1000"))
		require.NoError(t, err)
		numbers = append(numbers, receipt.InvoiceNumber)
	}
	assert.Equal(t, []string{"INV-000001", "INV-000002", "INV-000003"}, numbers)

	list, err := f.sales.ListSales(f.ctx, &repository.SaleFilterParams{Search: "0002"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "INV-000002", list.Items[0].Number)
}

func TestMarkTransmittedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	p := f.product("COFFEE", "1000")
	receipt, err := f.checkout([]CheckoutItemInput{f.item(p, "1")}, f.pay("CASH", "1000"))
	require.NoError(t, err)

	first, err := f.sales.MarkTransmitted(f.ctx, receipt.InvoiceID)
	require.NoError(t, err)
	require.NotNil(t, first.TransmittedAt)

	second, err := f.sales.MarkTransmitted(f.ctx, receipt.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, *first.TransmittedAt, *second.TransmittedAt)

	_, err = f.sales.MarkTransmitted(f.ctx, uuid.New())
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}
