package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/shopspring/decimal"
)

// CreditService collects payments against credit-pending sales
type CreditService struct {
	uow    repository.UnitOfWork
	engine *SaleEngine
}

// NewCreditService creates a new credit service
func NewCreditService(uow repository.UnitOfWork, engine *SaleEngine) *CreditService {
	return &CreditService{uow: uow, engine: engine}
}

// SettleInput represents a payment towards a receivable
type SettleInput struct {
	UserID          uuid.UUID
	SaleID          uuid.UUID
	PaymentMethodID uuid.UUID
	Amount          decimal.Decimal
	Reference       *string
	Notes           *string
}

// Settlement is the outcome of a credit payment
type Settlement struct {
	SaleID  uuid.UUID       `json:"sale_id"`
	Status  enum.SaleStatus `json:"status"`
	Balance decimal.Decimal `json:"balance"`
	Payment *entity.Payment `json:"payment"`
}

// Settle pays down a credit-pending sale. The sale becomes PAID when its balance reaches zero.
func (s *CreditService) Settle(ctx context.Context, input *SettleInput) (*Settlement, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}
	if input.PaymentMethodID == uuid.Nil {
		return nil, apperror.NewFieldError("payment_method_id", "Payment method is required")
	}
	if input.Amount.LessThan(PaymentEpsilon) {
		return nil, apperror.NewFieldError("amount", "Amount must be at least 0.01")
	}

	var result *Settlement
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		sale, err := repos.Sales.GetForUpdate(ctx, input.SaleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return apperror.NewNotFoundError("Sale")
		}
		if !sale.IsCredit() {
			return apperror.NewBusinessError(apperror.CodeSaleNotPending, "Sale has no outstanding balance")
		}
		if input.Amount.GreaterThan(sale.Balance.Add(PaymentEpsilon)) {
			return apperror.NewFieldError("amount", "Amount exceeds the outstanding balance")
		}
		applied := decimal.Min(input.Amount, sale.Balance)

		methods, err := repos.PaymentMethods.GetByIDs(ctx, []uuid.UUID{input.PaymentMethodID})
		if err != nil {
			return err
		}
		if len(methods) == 0 || !methods[0].Active {
			return apperror.NewFieldError("payment_method_id", "Payment method not found")
		}
		method := &methods[0]
		if method.Kind == enum.PaymentKindCredit {
			return apperror.NewFieldError("payment_method_id", "A receivable cannot be settled on credit")
		}

		shift, err := s.engine.Shifts.RequireOpenShift(ctx, repos.Shifts, input.UserID)
		if err != nil {
			return err
		}

		customer, err := repos.Customers.GetForUpdate(ctx, sale.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return apperror.NewNotFoundError("Customer")
		}

		payment := entity.Payment{
			TenantID:        tenantID,
			SaleID:          sale.ID,
			ShiftID:         shift.ID,
			PaymentMethodID: method.ID,
			MethodCode:      method.Code,
			Kind:            method.Kind,
			Amount:          applied,
			Tendered:        input.Amount,
			Reference:       input.Reference,
			Notes:           input.Notes,
			UserID:          input.UserID,
		}
		batch := []entity.Payment{payment}
		if err := repos.Payments.CreateBatch(ctx, batch); err != nil {
			return err
		}
		payment = batch[0]

		if err := s.engine.Shifts.ApplyToMethod(ctx, repos.Shifts, shift, method, applied); err != nil {
			return err
		}
		if method.Kind.IsCash() {
			if err := s.engine.Shifts.RecordCashMovement(ctx, repos.Shifts, &entity.CashMovement{
				TenantID:  tenantID,
				ShiftID:   shift.ID,
				Type:      enum.CashMovementSettlement,
				Amount:    applied,
				Reference: sale.Number,
				UserID:    input.UserID,
			}); err != nil {
				return err
			}
		}

		balance := sale.Balance.Sub(applied)
		status := enum.SaleStatusCreditPending
		if !balance.IsPositive() {
			balance = decimal.Zero
			status = enum.SaleStatusPaid
		}
		if err := repos.Sales.UpdateSettlement(ctx, sale.ID, status, balance); err != nil {
			return err
		}
		if err := repos.Customers.AdjustBalance(ctx, customer.ID, applied.Neg()); err != nil {
			return err
		}

		if _, err := s.engine.Events.Publish(ctx, repos.Events, tenantID, entity.EventCreditSettled, sale.ID,
			entity.SaleEventPayload{SaleID: sale.ID, Number: sale.Number, PaymentIDs: []uuid.UUID{payment.ID}}); err != nil {
			return err
		}

		result = &Settlement{SaleID: sale.ID, Status: status, Balance: balance, Payment: &payment}
		return nil
	})
	if err != nil {
		log.Printf("[credit] settle sale=%s aborted: %v", input.SaleID, err)
		return nil, err
	}
	return result, nil
}
