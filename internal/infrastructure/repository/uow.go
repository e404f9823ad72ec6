package repository

import (
	"context"

	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/infrastructure/database"
	"gorm.io/gorm"
)

type unitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a unit of work over a PostgreSQL connection
func NewUnitOfWork(db *gorm.DB) domainRepo.UnitOfWork {
	return &unitOfWork{db: db}
}

// NewRepositories binds every sales store to db, which may be a transaction
func NewRepositories(db *gorm.DB) *domainRepo.Repositories {
	return &domainRepo.Repositories{
		Sales:          NewSaleRepository(db),
		Payments:       NewPaymentRepository(db),
		PaymentMethods: NewPaymentMethodRepository(db),
		Customers:      NewCustomerRepository(db),
		Shifts:         NewShiftRepository(db),
		Stock:          NewStockRepository(db),
		Products:       NewProductRepository(db),
		TaxRates:       NewTaxRateRepository(db),
		Sequences:      NewSequenceRepository(db),
		Events:         NewIntegrationEventRepository(db),
		Returns:        NewReturnRepository(db),
		Journals:       NewJournalRepository(db),
	}
}

func (u *unitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *domainRepo.Repositories) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	})
	// commit failures do not pass through the statement callbacks
	return database.Classify(err)
}

func (u *unitOfWork) Repositories() *domainRepo.Repositories {
	return NewRepositories(u.db)
}
