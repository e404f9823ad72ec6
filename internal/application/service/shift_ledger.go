package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/shopspring/decimal"
)

// ShiftLedger accumulates applied tender per payment method in the cashier's open shift
type ShiftLedger struct{}

// NewShiftLedger creates a shift ledger
func NewShiftLedger() *ShiftLedger {
	return &ShiftLedger{}
}

// RequireOpenShift returns the user's open shift or SHIFT_NOT_OPEN
func (l *ShiftLedger) RequireOpenShift(ctx context.Context, shifts repository.ShiftRepository, userID uuid.UUID) (*entity.Shift, error) {
	shift, err := shifts.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, apperror.NewBusinessError(apperror.CodeShiftNotOpen, "Open a shift before taking payments")
	}
	return shift, nil
}

// ApplyToMethod adds amount to the method's expected total. Cash also moves
// the expected drawer balance. Refunds pass a negative amount.
func (l *ShiftLedger) ApplyToMethod(ctx context.Context, shifts repository.ShiftRepository, shift *entity.Shift, method *entity.PaymentMethod, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	if err := shifts.UpsertSummary(ctx, shift.ID, method, amount); err != nil {
		return err
	}
	if method.Kind.IsCash() {
		if err := shifts.AddExpectedCash(ctx, shift.ID, amount); err != nil {
			return err
		}
		shift.ExpectedCash = shift.ExpectedCash.Add(amount)
	}
	return nil
}

// RecordCashMovement appends an entry to the drawer audit log
func (l *ShiftLedger) RecordCashMovement(ctx context.Context, shifts repository.ShiftRepository, movement *entity.CashMovement) error {
	if movement.Amount.IsZero() {
		return nil
	}
	return shifts.CreateCashMovement(ctx, movement)
}
