package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// CustomerService handles customer-related operations
type CustomerService struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repository.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// CreateCustomerInput represents the create customer input
type CreateCustomerInput struct {
	UserID      uuid.UUID
	Code        string
	Name        string
	Email       *string
	Phone       *string
	TaxID       *string
	Address     *string
	CreditLimit *decimal.Decimal
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, input *CreateCustomerInput) (*entity.Customer, error) {
	// Extract tenant ID from context
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == entity.WalkInCustomerCode {
		return nil, apperror.NewFieldError("code", "Code is reserved for the walk-in customer")
	}
	if input.CreditLimit != nil && input.CreditLimit.IsNegative() {
		return nil, apperror.NewFieldError("credit_limit", "Credit limit cannot be negative")
	}

	customer := &entity.Customer{
		TenantID:    tenantID,
		UserID:      input.UserID,
		Code:        code,
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		TaxID:       input.TaxID,
		Address:     input.Address,
		CreditLimit: input.CreditLimit,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflictError("Customer code already exists")
		}
		return nil, err
	}

	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// ListCustomers lists customers of the tenant
func (s *CustomerService) ListCustomers(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Customer], error) {
	params.Validate()
	customers, total, err := s.customerRepo.List(ctx, params, search)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(customers, params, total), nil
}

// UpdateCustomerInput represents the update customer input
type UpdateCustomerInput struct {
	ID          uuid.UUID
	Name        *string
	Email       *string
	Phone       *string
	TaxID       *string
	Address     *string
	CreditLimit *decimal.Decimal
	// ClearCreditLimit removes the limit, making the customer's credit unlimited
	ClearCreditLimit bool
}

// UpdateCustomer updates contact details and the credit limit. The running balance is
// owned by sales and settlements and cannot be edited here.
func (s *CustomerService) UpdateCustomer(ctx context.Context, input *UpdateCustomerInput) (*entity.Customer, error) {
	customer, err := s.GetCustomer(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		customer.Name = *input.Name
	}
	if input.Email != nil {
		customer.Email = input.Email
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.TaxID != nil {
		customer.TaxID = input.TaxID
	}
	if input.Address != nil {
		customer.Address = input.Address
	}
	switch {
	case input.ClearCreditLimit:
		if customer.IsWalkIn {
			return nil, apperror.NewFieldError("credit_limit", "The walk-in customer cannot buy on credit")
		}
		customer.CreditLimit = nil
	case input.CreditLimit != nil:
		if input.CreditLimit.IsNegative() {
			return nil, apperror.NewFieldError("credit_limit", "Credit limit cannot be negative")
		}
		if customer.IsWalkIn && input.CreditLimit.IsPositive() {
			return nil, apperror.NewFieldError("credit_limit", "The walk-in customer cannot buy on credit")
		}
		customer.CreditLimit = input.CreditLimit
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}
