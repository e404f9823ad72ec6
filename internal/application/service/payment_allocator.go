package service

import (
	"fmt"

	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/shopspring/decimal"
)

// PaymentEpsilon is the shortfall tolerated between tender and total
var PaymentEpsilon = decimal.New(1, -2)

// Tender is one method and the amount handed over through it
type Tender struct {
	Method    *entity.PaymentMethod
	Amount    decimal.Decimal
	Reference *string
	Notes     *string
}

// AppliedTender is a tender with the part of it that pays the sale
type AppliedTender struct {
	Tender
	Applied decimal.Decimal
}

// Allocation is the outcome of distributing tender over a sale total
type Allocation struct {
	Total    decimal.Decimal
	Tendered decimal.Decimal
	Change   decimal.Decimal
	Legs     []AppliedTender
}

// CashApplied is the net cash that stays in the drawer
func (a *Allocation) CashApplied() decimal.Decimal {
	sum := decimal.Zero
	for _, leg := range a.Legs {
		if leg.Method.Kind.IsCash() {
			sum = sum.Add(leg.Applied)
		}
	}
	return sum
}

// PaymentAllocator splits tender across payment methods
type PaymentAllocator struct{}

// NewPaymentAllocator creates a payment allocator
func NewPaymentAllocator() *PaymentAllocator {
	return &PaymentAllocator{}
}

// Allocate validates tender against total and decides how much of each leg is applied.
// Change is computed once and handed back from cash legs in submission order.
// A zero leg is accepted: a legacy tender for a free sale carries nothing.
func (a *PaymentAllocator) Allocate(total decimal.Decimal, tenders []Tender) (*Allocation, error) {
	if len(tenders) == 0 {
		return nil, apperror.NewFieldError("payments", "At least one payment is required")
	}

	tendered := decimal.Zero
	for i, t := range tenders {
		field := fmt.Sprintf("payments[%d]", i)
		if t.Method == nil {
			return nil, apperror.NewFieldError(field+".payment_method_id", "Payment method is required")
		}
		if t.Method.Kind == enum.PaymentKindCredit {
			return nil, apperror.NewFieldError(field+".payment_method_id", "Credit cannot be combined with other payment methods")
		}
		if t.Amount.IsNegative() {
			return nil, apperror.NewFieldError(field+".amount", "Amount cannot be negative")
		}
		tendered = tendered.Add(t.Amount)
	}

	if tendered.LessThan(total.Sub(PaymentEpsilon)) {
		return nil, apperror.NewBusinessError(apperror.CodeInsufficientFunds,
			fmt.Sprintf("Tendered %s does not cover the total %s", tendered.StringFixed(2), total.StringFixed(2)))
	}

	change := tendered.Sub(total)
	if change.IsNegative() {
		change = decimal.Zero
	}

	alloc := &Allocation{Total: total, Tendered: tendered, Change: change}
	remaining := change
	for _, t := range tenders {
		applied := t.Amount
		if remaining.IsPositive() && t.Method.Kind.IsCash() {
			deduct := decimal.Min(remaining, t.Amount)
			applied = t.Amount.Sub(deduct)
			remaining = remaining.Sub(deduct)
		}
		alloc.Legs = append(alloc.Legs, AppliedTender{Tender: t, Applied: applied})
	}

	if remaining.IsPositive() {
		return nil, apperror.NewBusinessError(apperror.CodeChangeRequiresCash,
			fmt.Sprintf("Change of %s can only be returned from cash tender", change.StringFixed(2)))
	}

	return alloc, nil
}
