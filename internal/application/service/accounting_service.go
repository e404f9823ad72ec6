package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/shopspring/decimal"
)

// Journal source types
const (
	JournalSourceSale    = "SALE"
	JournalSourceReturn  = "RETURN"
	JournalSourcePayment = "PAYMENT"
)

// AccountMap maps postings to ledger account codes
type AccountMap struct {
	Cash         string
	Bank         string
	Receivable   string
	Revenue      string
	TaxPayable   string
	CostOfSales  string
	Inventory    string
	SalesReturns string
}

// AccountingService derives balanced journal entries from committed sales documents.
// Every post is idempotent per (kind, source), so a redelivered event is harmless.
type AccountingService struct {
	uow      repository.UnitOfWork
	accounts AccountMap
	now      func() time.Time
}

// NewAccountingService creates a new accounting service
func NewAccountingService(uow repository.UnitOfWork, accounts AccountMap) *AccountingService {
	return &AccountingService{uow: uow, accounts: accounts, now: time.Now}
}

// HandleEvent posts the journals an outbox event calls for
func (s *AccountingService) HandleEvent(ctx context.Context, event *entity.IntegrationEvent) error {
	var payload entity.SaleEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}

	ctx = infraRepo.WithTenant(ctx, event.TenantID)
	return s.uow.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		switch event.Type {
		case entity.EventSaleCompleted:
			if err := s.PostSale(ctx, repos, payload); err != nil {
				return err
			}
			return s.PostCostOfSales(ctx, repos, payload.SaleID)
		case entity.EventSaleReturned:
			if payload.ReturnID == nil {
				return errors.New("sale.returned event without return id")
			}
			return s.PostReturn(ctx, repos, *payload.ReturnID)
		case entity.EventCreditSettled:
			return s.PostSettlement(ctx, repos, payload)
		default:
			return fmt.Errorf("unknown event type %q", event.Type)
		}
	})
}

// tenderAccount is the asset account a payment kind lands in
func (s *AccountingService) tenderAccount(kind enum.PaymentKind) string {
	if kind.IsCash() {
		return s.accounts.Cash
	}
	return s.accounts.Bank
}

// PostSale debits the applied tender (and receivable for the unpaid part) and
// credits revenue net of discount plus tax payable.
func (s *AccountingService) PostSale(ctx context.Context, repos *repository.Repositories, payload entity.SaleEventPayload) error {
	sale, err := repos.Sales.GetByID(ctx, payload.SaleID)
	if err != nil {
		return err
	}
	if sale == nil {
		return fmt.Errorf("sale %s not found", payload.SaleID)
	}

	checkoutPayments := make(map[uuid.UUID]bool, len(payload.PaymentIDs))
	for _, id := range payload.PaymentIDs {
		checkoutPayments[id] = true
	}

	entry := s.newEntry(sale.TenantID, entity.JournalKindSale, JournalSourceSale, sale.ID, sale.Number, "Sale "+sale.Number)
	paid := decimal.Zero
	for _, p := range sale.Payments {
		if !checkoutPayments[p.ID] {
			continue
		}
		entry.debit(s.tenderAccount(p.Kind), p.Amount, p.MethodCode)
		paid = paid.Add(p.Amount)
	}
	if receivable := sale.Total.Sub(paid); receivable.IsPositive() {
		entry.debit(s.accounts.Receivable, receivable, "credit sale")
	}
	entry.credit(s.accounts.Revenue, sale.Subtotal.Sub(sale.Discount), "")
	entry.credit(s.accounts.TaxPayable, sale.TaxTotal, "")

	return s.post(ctx, repos, entry.JournalEntry)
}

// PostCostOfSales moves the cost of the consumed stock from inventory to cost of sales
func (s *AccountingService) PostCostOfSales(ctx context.Context, repos *repository.Repositories, saleID uuid.UUID) error {
	movements, err := repos.Stock.ListMovementsBySource(ctx, StockSourceSale, saleID)
	if err != nil {
		return err
	}
	return s.postCost(ctx, repos, movements, entity.JournalKindCostOfSales, JournalSourceSale, saleID, false)
}

// PostReturn reverses revenue and tax of a return against the receivable and the refund tender
func (s *AccountingService) PostReturn(ctx context.Context, repos *repository.Repositories, returnID uuid.UUID) error {
	ret, err := repos.Returns.GetByID(ctx, returnID)
	if err != nil {
		return err
	}
	if ret == nil {
		return fmt.Errorf("return %s not found", returnID)
	}

	entry := s.newEntry(ret.TenantID, entity.JournalKindReturn, JournalSourceReturn, ret.ID, ret.Number, "Return "+ret.Number)
	// rounding write-offs of the last return of a credit sale land on sales returns
	settled := ret.CreditApplied.Add(ret.Refunded)
	entry.debit(s.accounts.SalesReturns, ret.Subtotal.Sub(ret.Discount).Add(settled.Sub(ret.Total)), "")
	entry.debit(s.accounts.TaxPayable, ret.TaxTotal, "")
	entry.credit(s.accounts.Receivable, ret.CreditApplied, "credit reduced")
	if ret.Refunded.IsPositive() {
		account := s.accounts.Bank
		if ret.RefundKind != nil && *ret.RefundKind == enum.PaymentKindCash.String() {
			account = s.accounts.Cash
		}
		entry.credit(account, ret.Refunded, "refund")
	}

	if err := s.post(ctx, repos, entry.JournalEntry); err != nil {
		return err
	}

	movements, err := repos.Stock.ListMovementsBySource(ctx, StockSourceReturn, ret.ID)
	if err != nil {
		return err
	}
	return s.postCost(ctx, repos, movements, entity.JournalKindReturnCost, JournalSourceReturn, ret.ID, true)
}

// PostSettlement moves settled amounts from the receivable to the tender accounts
func (s *AccountingService) PostSettlement(ctx context.Context, repos *repository.Repositories, payload entity.SaleEventPayload) error {
	payments, err := repos.Payments.ListBySale(ctx, payload.SaleID)
	if err != nil {
		return err
	}

	wanted := make(map[uuid.UUID]bool, len(payload.PaymentIDs))
	for _, id := range payload.PaymentIDs {
		wanted[id] = true
	}

	for _, p := range payments {
		if !wanted[p.ID] {
			continue
		}
		entry := s.newEntry(p.TenantID, entity.JournalKindSettlement, JournalSourcePayment, p.ID, payload.Number,
			"Settlement of "+payload.Number)
		entry.debit(s.tenderAccount(p.Kind), p.Amount, p.MethodCode)
		entry.credit(s.accounts.Receivable, p.Amount, "")
		if err := s.post(ctx, repos, entry.JournalEntry); err != nil {
			return err
		}
	}
	return nil
}

func (s *AccountingService) postCost(ctx context.Context, repos *repository.Repositories, movements []entity.StockMovement, kind, sourceType string, sourceID uuid.UUID, reverse bool) error {
	cost := decimal.Zero
	reference := ""
	var tenantID uuid.UUID
	for i := range movements {
		cost = cost.Add(movements[i].Cost())
		reference = movements[i].Reference
		tenantID = movements[i].TenantID
	}
	if cost.IsZero() {
		return nil
	}

	entry := s.newEntry(tenantID, kind, sourceType, sourceID, reference, "Cost of "+reference)
	if reverse {
		entry.debit(s.accounts.Inventory, cost, "")
		entry.credit(s.accounts.CostOfSales, cost, "")
	} else {
		entry.debit(s.accounts.CostOfSales, cost, "")
		entry.credit(s.accounts.Inventory, cost, "")
	}
	return s.post(ctx, repos, entry.JournalEntry)
}

// post stores entry unless the same post already exists
func (s *AccountingService) post(ctx context.Context, repos *repository.Repositories, entry *entity.JournalEntry) error {
	debit, credit := entry.Totals()
	if !debit.Equal(credit) {
		return fmt.Errorf("unbalanced %s entry for %s: debit %s credit %s", entry.Kind, entry.Reference, debit, credit)
	}

	exists, err := repos.Journals.Exists(ctx, entry.SourceType, entry.SourceID, entry.Kind)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = repos.Journals.Create(ctx, entry)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	return err
}

// entryBuilder appends non-zero lines to a journal entry
type entryBuilder struct {
	*entity.JournalEntry
}

func (s *AccountingService) newEntry(tenantID uuid.UUID, kind, sourceType string, sourceID uuid.UUID, reference, description string) *entryBuilder {
	return &entryBuilder{&entity.JournalEntry{
		TenantID:    tenantID,
		Kind:        kind,
		SourceType:  sourceType,
		SourceID:    sourceID,
		Reference:   reference,
		Description: description,
		PostedAt:    s.now(),
	}}
}

func (b *entryBuilder) debit(account string, amount decimal.Decimal, memo string) {
	if amount.IsZero() {
		return
	}
	b.Lines = append(b.Lines, entity.JournalLine{AccountCode: account, Debit: amount, Credit: decimal.Zero, Memo: memo})
}

func (b *entryBuilder) credit(account string, amount decimal.Decimal, memo string) {
	if amount.IsZero() {
		return
	}
	b.Lines = append(b.Lines, entity.JournalLine{AccountCode: account, Debit: decimal.Zero, Credit: amount, Memo: memo})
}
