package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/shopspring/decimal"
)

// ReturnService reverses sold quantities without editing the original sale
type ReturnService struct {
	uow    repository.UnitOfWork
	engine *SaleEngine
}

// NewReturnService creates a new return service
func NewReturnService(uow repository.UnitOfWork, engine *SaleEngine) *ReturnService {
	return &ReturnService{uow: uow, engine: engine}
}

// ReturnLineInput is a quantity of one sale line being brought back
type ReturnLineInput struct {
	SaleLineID uuid.UUID
	Quantity   decimal.Decimal
}

// ReturnInput represents a return request
type ReturnInput struct {
	UserID         uuid.UUID
	SaleID         uuid.UUID
	Lines          []ReturnLineInput
	RefundMethodID *uuid.UUID
	Reason         string
}

func (in *ReturnInput) validate() []apperror.FieldError {
	var errs []apperror.FieldError
	if len(in.Lines) == 0 {
		errs = append(errs, apperror.FieldError{Field: "lines", Message: "At least one line is required"})
	}
	for i, l := range in.Lines {
		if l.SaleLineID == uuid.Nil {
			errs = append(errs, apperror.FieldError{Field: fmt.Sprintf("lines[%d].sale_line_id", i), Message: "Sale line is required"})
		}
		if !l.Quantity.IsPositive() {
			errs = append(errs, apperror.FieldError{Field: fmt.Sprintf("lines[%d].quantity", i), Message: "Quantity must be greater than zero"})
		}
	}
	return errs
}

// Create records a return: credit-pending sales are reduced first, the rest is refunded
// through the refund method. Stock comes back and a credit note is issued when the sale
// was already transmitted.
func (s *ReturnService) Create(ctx context.Context, input *ReturnInput) (*entity.SaleReturn, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}
	if errs := input.validate(); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	var result *entity.SaleReturn
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		sale, err := repos.Sales.GetForUpdate(ctx, input.SaleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return apperror.NewNotFoundError("Sale")
		}
		if sale.Status == enum.SaleStatusVoid {
			return apperror.NewBusinessError(apperror.CodeSaleNotReturnable, "Sale was already fully returned")
		}

		returned, err := repos.Returns.ReturnedQuantities(ctx, sale.ID)
		if err != nil {
			return err
		}
		if returned == nil {
			returned = make(map[uuid.UUID]decimal.Decimal)
		}

		ret := &entity.SaleReturn{
			TenantID: tenantID,
			SaleID:   sale.ID,
			UserID:   input.UserID,
			Reason:   input.Reason,
		}

		saleLines := make(map[uuid.UUID]*entity.SaleLine, len(sale.Lines))
		for i := range sale.Lines {
			saleLines[sale.Lines[i].ID] = &sale.Lines[i]
		}

		for i, in := range input.Lines {
			line, ok := saleLines[in.SaleLineID]
			if !ok {
				return apperror.NewFieldError(fmt.Sprintf("lines[%d].sale_line_id", i), "Line does not belong to the sale")
			}
			available := line.Quantity.Sub(returned[line.ID])
			if in.Quantity.GreaterThan(available) {
				return apperror.NewBusinessError(apperror.CodeReturnExceedsSold,
					fmt.Sprintf("Only %s of line %d can still be returned", available.String(), line.Position))
			}
			returned[line.ID] = returned[line.ID].Add(in.Quantity)

			share := in.Quantity.Div(line.Quantity)
			subtotal := line.Subtotal.Mul(share).Round(currencyPlaces)
			tax := line.TaxTotal.Mul(share).Round(currencyPlaces)
			ret.Lines = append(ret.Lines, entity.SaleReturnLine{
				SaleLineID: line.ID,
				ProductID:  line.ProductID,
				VariantID:  line.VariantID,
				Quantity:   in.Quantity,
				Subtotal:   subtotal,
				TaxTotal:   tax,
			})
			ret.Subtotal = ret.Subtotal.Add(subtotal)
			ret.TaxTotal = ret.TaxTotal.Add(tax)
		}

		if sale.Discount.IsPositive() && sale.Subtotal.IsPositive() {
			ret.Discount = sale.Discount.Mul(ret.Subtotal).Div(sale.Subtotal).Round(currencyPlaces)
		}
		ret.Total = ret.Subtotal.Sub(ret.Discount).Add(ret.TaxTotal)

		fullyReturned := true
		for _, line := range sale.Lines {
			if returned[line.ID].LessThan(line.Quantity) {
				fullyReturned = false
				break
			}
		}

		balance := sale.Balance
		if sale.IsCredit() {
			ret.CreditApplied = decimal.Min(ret.Total, balance)
			if fullyReturned {
				// rounding residue of earlier partial returns is written off with the last one
				ret.CreditApplied = balance
			}
			balance = balance.Sub(ret.CreditApplied)
			if err := repos.Customers.AdjustBalance(ctx, sale.CustomerID, ret.CreditApplied.Neg()); err != nil {
				return err
			}
		}
		ret.Refunded = ret.Total.Sub(ret.CreditApplied)
		if ret.Refunded.IsNegative() {
			ret.Refunded = decimal.Zero
		}

		number, err := s.engine.Numbers.Next(ctx, repos.Sequences, tenantID, entity.SequenceReturn)
		if err != nil {
			return err
		}
		ret.Number = number

		var shift *entity.Shift
		var method *entity.PaymentMethod
		if ret.Refunded.IsPositive() {
			method, err = s.refundMethod(ctx, repos, input.RefundMethodID)
			if err != nil {
				return err
			}
			shift, err = s.engine.Shifts.RequireOpenShift(ctx, repos.Shifts, input.UserID)
			if err != nil {
				return err
			}
			kind := method.Kind.String()
			ret.ShiftID = &shift.ID
			ret.RefundMethodID = &method.ID
			ret.RefundKind = &kind
		}

		if err := repos.Returns.Create(ctx, ret); err != nil {
			return err
		}

		if shift != nil {
			if err := s.engine.Shifts.ApplyToMethod(ctx, repos.Shifts, shift, method, ret.Refunded.Neg()); err != nil {
				return err
			}
			if method.Kind.IsCash() {
				if err := s.engine.Shifts.RecordCashMovement(ctx, repos.Shifts, &entity.CashMovement{
					TenantID:  tenantID,
					ShiftID:   shift.ID,
					Type:      enum.CashMovementRefund,
					Amount:    ret.Refunded,
					Reference: ret.Number,
					UserID:    input.UserID,
				}); err != nil {
					return err
				}
			}
		}

		stockLines := make([]StockLine, 0, len(ret.Lines))
		for _, l := range ret.Lines {
			stockLines = append(stockLines, StockLine{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity})
		}
		if _, err := s.engine.Stock.Restock(ctx, repos, StockDocument{
			TenantID:    tenantID,
			WarehouseID: sale.WarehouseID,
			UserID:      input.UserID,
			SourceType:  StockSourceReturn,
			SourceID:    ret.ID,
			Reference:   ret.Number,
			Lines:       stockLines,
		}); err != nil {
			return err
		}

		if sale.TransmittedAt != nil {
			noteNumber, err := s.engine.Numbers.Next(ctx, repos.Sequences, tenantID, entity.SequenceCreditNote)
			if err != nil {
				return err
			}
			note := &entity.CreditNote{
				TenantID:  tenantID,
				Number:    noteNumber,
				SaleID:    sale.ID,
				ReturnID:  ret.ID,
				Amount:    ret.Total,
				TaxAmount: ret.TaxTotal,
			}
			if err := repos.Returns.CreateCreditNote(ctx, note); err != nil {
				return err
			}
			ret.CreditNote = note
		}

		status := sale.Status
		switch {
		case fullyReturned:
			status = enum.SaleStatusVoid
			balance = decimal.Zero
		case sale.IsCredit() && !balance.IsPositive():
			status = enum.SaleStatusPaid
		}
		if status != sale.Status || !balance.Equal(sale.Balance) {
			if err := repos.Sales.UpdateSettlement(ctx, sale.ID, status, balance); err != nil {
				return err
			}
		}

		returnID := ret.ID
		if _, err := s.engine.Events.Publish(ctx, repos.Events, tenantID, entity.EventSaleReturned, sale.ID,
			entity.SaleEventPayload{SaleID: sale.ID, Number: ret.Number, ReturnID: &returnID}); err != nil {
			return err
		}

		result = ret
		return nil
	})
	if err != nil {
		log.Printf("[return] sale=%s aborted: %v", input.SaleID, err)
		return nil, err
	}

	log.Printf("[return] %s total=%s refunded=%s credit=%s", result.Number, result.Total, result.Refunded, result.CreditApplied)
	return result, nil
}

func (s *ReturnService) refundMethod(ctx context.Context, repos *repository.Repositories, id *uuid.UUID) (*entity.PaymentMethod, error) {
	if id == nil {
		return nil, apperror.NewFieldError("refund_method_id", "Refund method is required")
	}
	methods, err := repos.PaymentMethods.GetByIDs(ctx, []uuid.UUID{*id})
	if err != nil {
		return nil, err
	}
	if len(methods) == 0 || !methods[0].Active {
		return nil, apperror.NewFieldError("refund_method_id", "Payment method not found")
	}
	if methods[0].Kind == enum.PaymentKindCredit {
		return nil, apperror.NewFieldError("refund_method_id", "Refunds cannot be paid on credit")
	}
	return &methods[0], nil
}
