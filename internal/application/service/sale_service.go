package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/pagination"
	"github.com/sangkips/investify-pos/pkg/retry"
	"github.com/sangkips/investify-pos/pkg/utils"
	"github.com/shopspring/decimal"
)

// checkoutState is the stage a checkout reached, reported when it aborts
type checkoutState string

const (
	stateReceived      checkoutState = "RECEIVED"
	stateValidated     checkoutState = "VALIDATED"
	statePriced        checkoutState = "PRICED"
	statePaid          checkoutState = "PAID"
	stateCreditPending checkoutState = "CREDIT_PENDING"
	stateStockSynced   checkoutState = "STOCK_SYNCED"
	stateCommitted     checkoutState = "COMMITTED"
)

// OverrideVerifier validates supervisor override tokens
type OverrideVerifier interface {
	VerifyOverride(token, permission string) (*utils.OverrideClaims, error)
}

// SaleEngine groups the collaborators that sales documents drive
type SaleEngine struct {
	Taxes     *TaxEngine
	Allocator *PaymentAllocator
	Credit    *CreditLedger
	Stock     *StockSynchronizer
	Shifts    *ShiftLedger
	Numbers   *DocumentNumberer
	Events    *EventPublisher
}

// SaleService runs checkouts and serves sale queries
type SaleService struct {
	uow         repository.UnitOfWork
	permissions repository.PermissionChecker
	overrides   OverrideVerifier
	engine      *SaleEngine
	retry       retry.Policy
}

// NewSaleService creates a new sale service
func NewSaleService(
	uow repository.UnitOfWork,
	permissions repository.PermissionChecker,
	overrides OverrideVerifier,
	engine *SaleEngine,
	policy retry.Policy,
) *SaleService {
	return &SaleService{
		uow:         uow,
		permissions: permissions,
		overrides:   overrides,
		engine:      engine,
		retry:       policy,
	}
}

// CheckoutItemInput is one requested line
type CheckoutItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  decimal.Decimal
	// UnitPrice overrides the catalogue price when set
	UnitPrice       *decimal.Decimal
	DiscountPercent decimal.Decimal
	// TaxRate is the flat percentage of older clients
	TaxRate *decimal.Decimal
	// AppliedTaxes lists tax rate ids. nil falls back to the product's default rates,
	// an empty slice means the line is untaxed.
	AppliedTaxes []uuid.UUID
}

// CheckoutPaymentInput is one tender leg
type CheckoutPaymentInput struct {
	PaymentMethodID uuid.UUID
	Amount          decimal.Decimal
	Reference       *string
	Notes           *string
}

// CheckoutInput represents a checkout request
type CheckoutInput struct {
	UserID      uuid.UUID
	CustomerID  *uuid.UUID
	WarehouseID uuid.UUID
	Items       []CheckoutItemInput
	// PaymentMethod is the code of a single method, used when Payments is empty
	PaymentMethod         string
	Payments              []CheckoutPaymentInput
	Discount              decimal.Decimal
	CashReceived          *decimal.Decimal
	DiscountOverrideToken string
}

func (in *CheckoutInput) validate() []apperror.FieldError {
	var errs []apperror.FieldError
	add := func(field, msg string) {
		errs = append(errs, apperror.FieldError{Field: field, Message: msg})
	}

	if in.WarehouseID == uuid.Nil {
		add("warehouse_id", "Warehouse is required")
	}
	if len(in.Items) == 0 {
		add("items", "At least one item is required")
	}
	for i, item := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if item.ProductID == uuid.Nil {
			add(field+".product_id", "Product is required")
		}
		if !item.Quantity.IsPositive() {
			add(field+".quantity", "Quantity must be greater than zero")
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			add(field+".unit_price", "Unit price cannot be negative")
		}
		if item.DiscountPercent.IsNegative() || item.DiscountPercent.GreaterThan(hundred) {
			add(field+".discount", "Discount must be between 0 and 100")
		}
		if item.TaxRate != nil && (item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(hundred)) {
			add(field+".tax_rate", "Tax rate must be between 0 and 100")
		}
	}

	switch {
	case len(in.Payments) > 0 && in.PaymentMethod != "":
		add("payment_method", "Send either payment_method or payments, not both")
	case len(in.Payments) == 0 && in.PaymentMethod == "":
		add("payments", "At least one payment is required")
	}
	for i, p := range in.Payments {
		field := fmt.Sprintf("payments[%d]", i)
		if p.PaymentMethodID == uuid.Nil {
			add(field+".payment_method_id", "Payment method is required")
		}
		if p.Amount.LessThan(PaymentEpsilon) {
			add(field+".amount", "Amount must be at least 0.01")
		}
	}

	if in.Discount.IsNegative() {
		add("discount", "Discount cannot be negative")
	}
	if in.CashReceived != nil && in.CashReceived.IsNegative() {
		add("cash_received", "Cash received cannot be negative")
	}
	return errs
}

func (in *CheckoutInput) requestsDiscount() bool {
	if in.Discount.IsPositive() {
		return true
	}
	for _, item := range in.Items {
		if item.DiscountPercent.IsPositive() {
			return true
		}
	}
	return false
}

// Receipt is returned to the till after a committed checkout
type Receipt struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Total         decimal.Decimal `json:"total"`
	Change        decimal.Decimal `json:"change"`
	Status        enum.SaleStatus `json:"status"`
}

// Checkout prices, pays and commits a sale in a single transaction.
// Nothing is written unless every step succeeds.
func (s *SaleService) Checkout(ctx context.Context, input *CheckoutInput) (*Receipt, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	state := stateReceived
	if errs := input.validate(); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	var receipt *Receipt
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		authorizedBy, err := s.authorizeDiscount(ctx, input)
		if err != nil {
			return err
		}

		shift, err := s.engine.Shifts.RequireOpenShift(ctx, repos.Shifts, input.UserID)
		if err != nil {
			return err
		}
		state = stateValidated

		priced, err := s.price(ctx, repos, tenantID, input)
		if err != nil {
			return err
		}
		state = statePriced

		plan, err := s.resolvePayment(ctx, repos, input, priced.total)
		if err != nil {
			return err
		}

		// every payment rule is checked before the first write
		var customer *entity.Customer
		var alloc *Allocation
		if plan.credit {
			if input.CustomerID == nil {
				return apperror.NewBusinessError(apperror.CodeCreditNotAllowed, "Credit sales require a registered customer")
			}
			customer, err = repos.Customers.GetForUpdate(ctx, *input.CustomerID)
			if err != nil {
				return err
			}
			if customer == nil {
				return apperror.NewFieldError("customer_id", "Customer not found")
			}
			if err := s.engine.Credit.Check(customer, priced.total); err != nil {
				return err
			}
		} else {
			alloc, err = s.engine.Allocator.Allocate(priced.total, plan.tenders)
			if err != nil {
				return err
			}
			if input.CustomerID != nil {
				customer, err = repos.Customers.GetByID(ctx, *input.CustomerID)
				if err != nil {
					return err
				}
				if customer == nil {
					return apperror.NewFieldError("customer_id", "Customer not found")
				}
			}
		}

		if customer == nil {
			customer, err = ensureWalkIn(ctx, repos.Customers, tenantID, input.UserID)
			if err != nil {
				return err
			}
		}

		number, err := s.engine.Numbers.Next(ctx, repos.Sequences, tenantID, entity.SequenceInvoice)
		if err != nil {
			return err
		}

		sale := &entity.Sale{
			TenantID:       tenantID,
			Number:         number,
			Status:         enum.SaleStatusPaid,
			UserID:         input.UserID,
			CustomerID:     customer.ID,
			ShiftID:        shift.ID,
			WarehouseID:    input.WarehouseID,
			Subtotal:       priced.subtotal,
			Discount:       priced.discount,
			TaxTotal:       priced.tax,
			Total:          priced.total,
			Balance:        decimal.Zero,
			DiscountAuthBy: authorizedBy,
			Lines:          priced.lines,
			TaxSummaries:   priced.saleSummaries(),
		}
		if plan.credit {
			s.engine.Credit.MarkPending(sale)
		} else {
			sale.AmountTendered = alloc.Tendered
			sale.Change = alloc.Change
		}

		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}

		if plan.credit {
			if err := s.engine.Credit.Apply(ctx, repos.Customers, sale, customer); err != nil {
				return err
			}
			state = stateCreditPending
		} else {
			if err := s.recordTender(ctx, repos, sale, shift, alloc); err != nil {
				return err
			}
			state = statePaid
		}

		if _, err := s.engine.Stock.Consume(ctx, repos, StockDocument{
			TenantID:    tenantID,
			WarehouseID: sale.WarehouseID,
			UserID:      input.UserID,
			SourceType:  StockSourceSale,
			SourceID:    sale.ID,
			Reference:   sale.Number,
			Lines:       stockLinesOf(sale.Lines),
		}); err != nil {
			return err
		}
		state = stateStockSynced

		payload := entity.SaleEventPayload{SaleID: sale.ID, Number: sale.Number}
		for _, p := range sale.Payments {
			payload.PaymentIDs = append(payload.PaymentIDs, p.ID)
		}
		if _, err := s.engine.Events.Publish(ctx, repos.Events, tenantID, entity.EventSaleCompleted, sale.ID, payload); err != nil {
			return err
		}

		receipt = &Receipt{
			InvoiceID:     sale.ID,
			InvoiceNumber: sale.Number,
			Total:         sale.Total,
			Change:        sale.Change,
			Status:        sale.Status,
		}
		return nil
	})
	if err != nil {
		log.Printf("[checkout] user=%s aborted in state %s: %v", input.UserID, state, err)
		return nil, err
	}

	state = stateCommitted
	log.Printf("[checkout] %s %s total=%s change=%s", receipt.InvoiceNumber, state, receipt.Total, receipt.Change)
	return receipt, nil
}

// authorizeDiscount returns who authorized a discount, or nil when none was requested
func (s *SaleService) authorizeDiscount(ctx context.Context, input *CheckoutInput) (*uuid.UUID, error) {
	if !input.requestsDiscount() {
		return nil, nil
	}

	allowed, err := s.permissions.HasPermission(ctx, input.UserID, entity.PermissionApplyDiscount)
	if err != nil {
		return nil, err
	}
	if allowed {
		id := input.UserID
		return &id, nil
	}

	if input.DiscountOverrideToken != "" && s.overrides != nil {
		claims, err := s.overrides.VerifyOverride(input.DiscountOverrideToken, entity.PermissionApplyDiscount)
		if err == nil {
			id := claims.SupervisorID
			return &id, nil
		}
		log.Printf("[checkout] override rejected for user=%s: %v", input.UserID, err)
	}

	return nil, apperror.NewForbiddenError(apperror.CodeDiscountNotAuthorized,
		"Discounts require the apply-discount permission or a supervisor override")
}

type pricedSale struct {
	lines     []entity.SaleLine
	summaries *TaxSummaryAccumulator
	subtotal  decimal.Decimal
	discount  decimal.Decimal
	tax       decimal.Decimal
	total     decimal.Decimal
}

func (p *pricedSale) saleSummaries() []entity.SaleTaxSummary {
	summaries := p.summaries.Summaries()
	out := make([]entity.SaleTaxSummary, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, entity.SaleTaxSummary{
			TaxRateID: sum.Rate.ID,
			RateKey:   sum.Rate.Key(),
			Name:      sum.Rate.Name,
			Rate:      sum.Rate.Rate,
			Base:      sum.Base,
			Amount:    sum.Amount,
		})
	}
	return out
}

// price computes every line and the document totals: total = subtotal - discount + tax
func (s *SaleService) price(ctx context.Context, repos *repository.Repositories, tenantID uuid.UUID, input *CheckoutInput) (*pricedSale, error) {
	taxes, err := s.engine.Taxes.ForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(input.Items))
	var rateIDs []uuid.UUID
	for _, item := range input.Items {
		productIDs = append(productIDs, item.ProductID)
		rateIDs = append(rateIDs, item.AppliedTaxes...)
	}

	// Batch fetch all products in one query
	products, err := repos.Products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	rateMap := make(map[uuid.UUID]*entity.TaxRate)
	if len(rateIDs) > 0 {
		rates, err := repos.TaxRates.GetByIDs(ctx, rateIDs)
		if err != nil {
			return nil, err
		}
		for i := range rates {
			rateMap[rates[i].ID] = &rates[i]
		}
	}

	priced := &pricedSale{summaries: NewTaxSummaryAccumulator()}
	for i, item := range input.Items {
		field := fmt.Sprintf("items[%d]", i)
		product, exists := productMap[item.ProductID]
		if !exists {
			return nil, apperror.NewFieldError(field+".product_id", "Product not found")
		}

		variantID := uuid.Nil
		unitPrice := product.Price
		description := product.Name
		if item.VariantID != nil {
			variant := findVariant(product, *item.VariantID)
			if variant == nil {
				return nil, apperror.NewFieldError(field+".variant_id", "Variant does not belong to the product")
			}
			variantID = variant.ID
			unitPrice = variant.Price
			description = product.Name + " " + variant.Name
		}
		if item.UnitPrice != nil {
			unitPrice = *item.UnitPrice
		}

		descriptors, err := lineRates(field, item, product, rateMap)
		if err != nil {
			return nil, err
		}

		base := LineSubtotal(item.Quantity, unitPrice, item.DiscountPercent)
		res := taxes.ComputeLine(base, descriptors, item.TaxRate)
		priced.summaries.Add(res)

		line := entity.SaleLine{
			Position:        i + 1,
			ProductID:       product.ID,
			VariantID:       variantID,
			Description:     description,
			Quantity:        item.Quantity,
			UnitPrice:       unitPrice,
			DiscountPercent: item.DiscountPercent,
			Subtotal:        base,
			TaxTotal:        res.Total,
			Total:           base.Add(res.Total),
		}
		for _, t := range res.Taxes {
			line.Taxes = append(line.Taxes, entity.SaleLineTax{
				TaxRateID: t.Rate.ID,
				RateKey:   t.Rate.Key(),
				Name:      t.Rate.Name,
				Rate:      t.Rate.Rate,
				Base:      t.Base,
				Amount:    t.Amount,
			})
		}

		priced.lines = append(priced.lines, line)
		priced.subtotal = priced.subtotal.Add(base)
	}

	priced.tax = priced.summaries.Total()
	priced.discount = input.Discount.Round(currencyPlaces)
	if priced.discount.GreaterThan(priced.subtotal) {
		return nil, apperror.NewFieldError("discount", "Discount cannot exceed the subtotal")
	}
	priced.total = priced.subtotal.Sub(priced.discount).Add(priced.tax)
	return priced, nil
}

func lineRates(field string, item CheckoutItemInput, product *entity.Product, rates map[uuid.UUID]*entity.TaxRate) ([]TaxRateDescriptor, error) {
	if item.AppliedTaxes != nil {
		out := make([]TaxRateDescriptor, 0, len(item.AppliedTaxes))
		for j, id := range item.AppliedTaxes {
			rate, ok := rates[id]
			if !ok || !rate.Active {
				return nil, apperror.NewFieldError(fmt.Sprintf("%s.applied_taxes[%d]", field, j), "Tax rate not found")
			}
			out = append(out, DescriptorFromRate(rate))
		}
		return out, nil
	}
	if item.TaxRate != nil {
		return nil, nil
	}

	out := make([]TaxRateDescriptor, 0, len(product.TaxRates))
	for i := range product.TaxRates {
		if product.TaxRates[i].Active {
			out = append(out, DescriptorFromRate(&product.TaxRates[i]))
		}
	}
	return out, nil
}

func findVariant(product *entity.Product, id uuid.UUID) *entity.ProductVariant {
	for i := range product.Variants {
		if product.Variants[i].ID == id {
			return &product.Variants[i]
		}
	}
	return nil
}

type paymentPlan struct {
	credit  bool
	tenders []Tender
}

// resolvePayment normalizes both request shapes into tender legs or the credit path
func (s *SaleService) resolvePayment(ctx context.Context, repos *repository.Repositories, input *CheckoutInput, total decimal.Decimal) (*paymentPlan, error) {
	if len(input.Payments) == 0 {
		method, err := repos.PaymentMethods.GetByCode(ctx, input.PaymentMethod)
		if err != nil {
			return nil, err
		}
		if method == nil || !method.Active {
			return nil, apperror.NewFieldError("payment_method", "Payment method not found")
		}
		if method.Kind == enum.PaymentKindCredit {
			return &paymentPlan{credit: true}, nil
		}

		amount := total
		if input.CashReceived != nil {
			amount = *input.CashReceived
		}
		return &paymentPlan{tenders: []Tender{{Method: method, Amount: amount}}}, nil
	}

	ids := make([]uuid.UUID, 0, len(input.Payments))
	for _, p := range input.Payments {
		ids = append(ids, p.PaymentMethodID)
	}
	methods, err := repos.PaymentMethods.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	methodMap := make(map[uuid.UUID]*entity.PaymentMethod, len(methods))
	for i := range methods {
		methodMap[methods[i].ID] = &methods[i]
	}

	plan := &paymentPlan{}
	for i, p := range input.Payments {
		field := fmt.Sprintf("payments[%d].payment_method_id", i)
		method, ok := methodMap[p.PaymentMethodID]
		if !ok || !method.Active {
			return nil, apperror.NewFieldError(field, "Payment method not found")
		}
		if method.Kind == enum.PaymentKindCredit {
			if len(input.Payments) > 1 {
				return nil, apperror.NewFieldError(field, "Credit cannot be combined with other payment methods")
			}
			return &paymentPlan{credit: true}, nil
		}
		plan.tenders = append(plan.tenders, Tender{
			Method:    method,
			Amount:    p.Amount,
			Reference: p.Reference,
			Notes:     p.Notes,
		})
	}
	return plan, nil
}

// recordTender writes the applied legs as payments and feeds the shift ledger
func (s *SaleService) recordTender(ctx context.Context, repos *repository.Repositories, sale *entity.Sale, shift *entity.Shift, alloc *Allocation) error {
	payments := make([]entity.Payment, 0, len(alloc.Legs))
	for _, leg := range alloc.Legs {
		if !leg.Applied.IsPositive() {
			continue
		}
		payments = append(payments, entity.Payment{
			TenantID:        sale.TenantID,
			SaleID:          sale.ID,
			ShiftID:         shift.ID,
			PaymentMethodID: leg.Method.ID,
			MethodCode:      leg.Method.Code,
			Kind:            leg.Method.Kind,
			Amount:          leg.Applied,
			Tendered:        leg.Amount,
			Reference:       leg.Reference,
			Notes:           leg.Notes,
			UserID:          sale.UserID,
		})
	}
	if len(payments) > 0 {
		if err := repos.Payments.CreateBatch(ctx, payments); err != nil {
			return err
		}
	}
	sale.Payments = payments

	for _, leg := range alloc.Legs {
		if err := s.engine.Shifts.ApplyToMethod(ctx, repos.Shifts, shift, leg.Method, leg.Applied); err != nil {
			return err
		}
	}

	return s.engine.Shifts.RecordCashMovement(ctx, repos.Shifts, &entity.CashMovement{
		TenantID:  sale.TenantID,
		ShiftID:   shift.ID,
		Type:      enum.CashMovementSale,
		Amount:    alloc.CashApplied(),
		Reference: sale.Number,
		UserID:    sale.UserID,
	})
}

// ensureWalkIn returns the tenant's walk-in customer, creating it on first use.
// Two first sales may race on the insert; the loser reads the winner's row.
func ensureWalkIn(ctx context.Context, customers repository.CustomerRepository, tenantID, userID uuid.UUID) (*entity.Customer, error) {
	customer, err := customers.GetByCode(ctx, entity.WalkInCustomerCode)
	if err != nil || customer != nil {
		return customer, err
	}

	customer = entity.NewWalkInCustomer(tenantID, userID)
	err = customers.CreateWalkIn(ctx, customer)
	if errors.Is(err, repository.ErrDuplicate) {
		customer, err = customers.GetByCode(ctx, entity.WalkInCustomerCode)
		if err == nil && customer == nil {
			err = fmt.Errorf("walk-in customer vanished after duplicate insert")
		}
	}
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func stockLinesOf(lines []entity.SaleLine) []StockLine {
	out := make([]StockLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, StockLine{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity})
	}
	return out
}

// MarkTransmitted records that the external e-invoicing system accepted the sale.
// Returns against a transmitted sale issue a credit note.
func (s *SaleService) MarkTransmitted(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		sale, err := repos.Sales.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return apperror.NewNotFoundError("Sale")
		}
		if sale.TransmittedAt != nil {
			return nil
		}
		return repos.Sales.MarkTransmitted(ctx, id, time.Now())
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(ctx, id)
}

// GetSale loads a sale with its lines, taxes and payments
func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	sale, err := retry.Value(ctx, s.retry, "sales.get", func() (*entity.Sale, error) {
		return s.uow.Repositories().Sales.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	return sale, nil
}

// ListSales retrieves sales with filters and pagination
func (s *SaleService) ListSales(ctx context.Context, params *repository.SaleFilterParams) (*pagination.PaginatedResult[entity.Sale], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	var total int64
	sales, err := retry.Value(ctx, s.retry, "sales.list", func() ([]entity.Sale, error) {
		items, n, err := s.uow.Repositories().Sales.List(ctx, params)
		total = n
		return items, err
	})
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(sales, params.Pagination, total), nil
}
