package service

import (
	"context"
	"fmt"

	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/shopspring/decimal"
)

// CreditLedger extends store credit to registered customers.
// A nil credit limit is unlimited, zero means the customer buys cash only.
type CreditLedger struct{}

// NewCreditLedger creates a credit ledger
func NewCreditLedger() *CreditLedger {
	return &CreditLedger{}
}

// Check verifies customer may owe total more. The customer row must be locked by the caller.
func (l *CreditLedger) Check(customer *entity.Customer, total decimal.Decimal) error {
	if customer == nil || customer.IsWalkIn {
		return apperror.NewBusinessError(apperror.CodeCreditNotAllowed, "Credit sales require a registered customer")
	}
	if customer.CreditLimit == nil {
		return nil
	}

	limit := *customer.CreditLimit
	if !limit.IsPositive() {
		return apperror.NewBusinessError(apperror.CodeCreditNotAllowed,
			fmt.Sprintf("Customer %s has no credit line", customer.Code))
	}
	if customer.CurrentBalance.Add(total).GreaterThan(limit) {
		return apperror.NewBusinessError(apperror.CodeCreditLimitExceeded,
			fmt.Sprintf("Credit limit %s exceeded: balance %s plus %s",
				limit.StringFixed(2), customer.CurrentBalance.StringFixed(2), total.StringFixed(2)))
	}
	return nil
}

// MarkPending turns a sale into an open receivable before it is persisted
func (l *CreditLedger) MarkPending(sale *entity.Sale) {
	sale.Status = enum.SaleStatusCreditPending
	sale.Balance = sale.Total
	sale.AmountTendered = decimal.Zero
	sale.Change = decimal.Zero
}

// Apply charges the sale total to the customer's running balance
func (l *CreditLedger) Apply(ctx context.Context, customers repository.CustomerRepository, sale *entity.Sale, customer *entity.Customer) error {
	if err := customers.AdjustBalance(ctx, customer.ID, sale.Total); err != nil {
		return err
	}
	customer.CurrentBalance = customer.CurrentBalance.Add(sale.Total)
	return nil
}
