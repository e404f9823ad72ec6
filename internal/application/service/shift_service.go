package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/retry"
	"github.com/shopspring/decimal"
)

// ShiftService handles the cashier session lifecycle
type ShiftService struct {
	uow    repository.UnitOfWork
	ledger *ShiftLedger
	retry  retry.Policy
	now    func() time.Time
}

// NewShiftService creates a new shift service
func NewShiftService(uow repository.UnitOfWork, ledger *ShiftLedger, policy retry.Policy) *ShiftService {
	return &ShiftService{uow: uow, ledger: ledger, retry: policy, now: time.Now}
}

// ShiftReport is a shift with its per-method totals and drawer log
type ShiftReport struct {
	Shift     *entity.Shift         `json:"shift"`
	Summaries []entity.ShiftSummary `json:"summaries"`
	Movements []entity.CashMovement `json:"movements"`
}

// OpenShiftInput represents the open shift input
type OpenShiftInput struct {
	UserID      uuid.UUID
	WarehouseID uuid.UUID
	OpeningCash decimal.Decimal
	Notes       *string
}

// Open starts a shift for the user. A user may hold only one open shift.
func (s *ShiftService) Open(ctx context.Context, input *OpenShiftInput) (*entity.Shift, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}
	if input.WarehouseID == uuid.Nil {
		return nil, apperror.NewFieldError("warehouse_id", "Warehouse is required")
	}
	if input.OpeningCash.IsNegative() {
		return nil, apperror.NewFieldError("opening_cash", "Opening cash cannot be negative")
	}

	var shift *entity.Shift
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		existing, err := repos.Shifts.GetOpenByUser(ctx, input.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.NewBusinessError(apperror.CodeShiftAlreadyOpen, "Close the current shift before opening another")
		}

		warehouse, err := repos.Stock.GetWarehouse(ctx, input.WarehouseID)
		if err != nil {
			return err
		}
		if warehouse == nil {
			return apperror.NewFieldError("warehouse_id", "Warehouse not found")
		}

		shift = &entity.Shift{
			TenantID:     tenantID,
			UserID:       input.UserID,
			WarehouseID:  warehouse.ID,
			Status:       enum.ShiftStatusOpen,
			OpeningCash:  input.OpeningCash,
			ExpectedCash: input.OpeningCash,
			Notes:        input.Notes,
			OpenedAt:     s.now(),
		}
		if err := repos.Shifts.Create(ctx, shift); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperror.NewBusinessError(apperror.CodeShiftAlreadyOpen, "Close the current shift before opening another")
			}
			return err
		}

		return s.ledger.RecordCashMovement(ctx, repos.Shifts, &entity.CashMovement{
			TenantID: tenantID,
			ShiftID:  shift.ID,
			Type:     enum.CashMovementOpening,
			Amount:   input.OpeningCash,
			UserID:   input.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[shift] user=%s opened %s with %s", input.UserID, shift.ID, shift.OpeningCash)
	return shift, nil
}

// Current returns the user's open shift with its running totals
func (s *ShiftService) Current(ctx context.Context, userID uuid.UUID) (*ShiftReport, error) {
	return retry.Value(ctx, s.retry, "shifts.current", func() (*ShiftReport, error) {
		repos := s.uow.Repositories()
		shift, err := s.ledger.RequireOpenShift(ctx, repos.Shifts, userID)
		if err != nil {
			return nil, err
		}
		return s.report(ctx, repos.Shifts, shift)
	})
}

func (s *ShiftService) report(ctx context.Context, shifts repository.ShiftRepository, shift *entity.Shift) (*ShiftReport, error) {
	summaries, err := shifts.ListSummaries(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	movements, err := shifts.ListCashMovements(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	return &ShiftReport{Shift: shift, Summaries: summaries, Movements: movements}, nil
}

// CloseShiftInput represents the close shift input
type CloseShiftInput struct {
	UserID      uuid.UUID
	CountedCash decimal.Decimal
	Notes       *string
}

// Close ends the user's shift and records the counted drawer against the expected cash
func (s *ShiftService) Close(ctx context.Context, input *CloseShiftInput) (*ShiftReport, error) {
	if input.CountedCash.IsNegative() {
		return nil, apperror.NewFieldError("counted_cash", "Counted cash cannot be negative")
	}

	var report *ShiftReport
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		shift, err := s.ledger.RequireOpenShift(ctx, repos.Shifts, input.UserID)
		if err != nil {
			return err
		}

		counted := input.CountedCash
		difference := counted.Sub(shift.ExpectedCash)
		closedAt := s.now()
		shift.Status = enum.ShiftStatusClosed
		shift.CountedCash = &counted
		shift.Difference = &difference
		shift.ClosedAt = &closedAt
		if input.Notes != nil {
			shift.Notes = input.Notes
		}
		if err := repos.Shifts.Close(ctx, shift); err != nil {
			return err
		}

		report, err = s.report(ctx, repos.Shifts, shift)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !report.Shift.Difference.IsZero() {
		log.Printf("[shift] %s closed with difference %s", report.Shift.ID, report.Shift.Difference)
	}
	return report, nil
}

// CashMovementInput represents a manual drawer movement
type CashMovementInput struct {
	UserID    uuid.UUID
	Type      enum.CashMovementType
	Amount    decimal.Decimal
	Reference string
	Notes     *string
}

// AddCashMovement records cash put into or taken out of the drawer outside a sale
func (s *ShiftService) AddCashMovement(ctx context.Context, input *CashMovementInput) (*entity.CashMovement, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}
	if input.Type != enum.CashMovementCashIn && input.Type != enum.CashMovementCashOut {
		return nil, apperror.NewFieldError("type", "Type must be CASH_IN or CASH_OUT")
	}
	if input.Amount.LessThan(PaymentEpsilon) {
		return nil, apperror.NewFieldError("amount", "Amount must be at least 0.01")
	}

	var movement *entity.CashMovement
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		shift, err := s.ledger.RequireOpenShift(ctx, repos.Shifts, input.UserID)
		if err != nil {
			return err
		}

		movement = &entity.CashMovement{
			TenantID:  tenantID,
			ShiftID:   shift.ID,
			Type:      input.Type,
			Amount:    input.Amount,
			Reference: input.Reference,
			Notes:     input.Notes,
			UserID:    input.UserID,
		}
		if err := repos.Shifts.AddExpectedCash(ctx, shift.ID, movement.Signed()); err != nil {
			return err
		}
		return s.ledger.RecordCashMovement(ctx, repos.Shifts, movement)
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}
