package repository

import "context"

// Repositories groups the stores a sales transaction writes to.
// Inside WithinTransaction every member is bound to the same transaction.
type Repositories struct {
	Sales          SaleRepository
	Payments       PaymentRepository
	PaymentMethods PaymentMethodRepository
	Customers      CustomerRepository
	Shifts         ShiftRepository
	Stock          StockRepository
	Products       ProductRepository
	TaxRates       TaxRateRepository
	Sequences      SequenceRepository
	Events         IntegrationEventRepository
	Returns        ReturnRepository
	Journals       JournalRepository
}

// UnitOfWork runs a function atomically. Any error returned by fn rolls
// back every write made through the repositories it was given.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
	// Repositories returns stores bound to no transaction, for reads.
	Repositories() *Repositories
}
