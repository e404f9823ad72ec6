// Package memory is a process-local store for the sales engine. It backs
// single-till installs and the service tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
)

type sequenceKey struct {
	tenantID uuid.UUID
	key      string
}

type summaryKey struct {
	shiftID  uuid.UUID
	methodID uuid.UUID
}

// dataset holds every row a sales transaction can write. It is copied
// before a transaction and put back when the transaction fails.
type dataset struct {
	sales       map[uuid.UUID]entity.Sale
	saleOrder   []uuid.UUID
	payments    []entity.Payment
	methods     map[uuid.UUID]entity.PaymentMethod
	customers   map[uuid.UUID]entity.Customer
	shifts      map[uuid.UUID]entity.Shift
	summaries   map[summaryKey]entity.ShiftSummary
	cash        []entity.CashMovement
	levels      map[entity.StockKey]entity.StockLevel
	movements   []entity.StockMovement
	warehouses  map[uuid.UUID]entity.Warehouse
	products    map[uuid.UUID]entity.Product
	taxRates    map[uuid.UUID]entity.TaxRate
	sequences   map[sequenceKey]int64
	events      map[snowflake.ID]entity.IntegrationEvent
	returns     map[uuid.UUID]entity.SaleReturn
	creditNotes map[uuid.UUID]entity.CreditNote
	journals    []entity.JournalEntry
}

func newDataset() *dataset {
	return &dataset{
		sales:       make(map[uuid.UUID]entity.Sale),
		methods:     make(map[uuid.UUID]entity.PaymentMethod),
		customers:   make(map[uuid.UUID]entity.Customer),
		shifts:      make(map[uuid.UUID]entity.Shift),
		summaries:   make(map[summaryKey]entity.ShiftSummary),
		levels:      make(map[entity.StockKey]entity.StockLevel),
		warehouses:  make(map[uuid.UUID]entity.Warehouse),
		products:    make(map[uuid.UUID]entity.Product),
		taxRates:    make(map[uuid.UUID]entity.TaxRate),
		sequences:   make(map[sequenceKey]int64),
		events:      make(map[snowflake.ID]entity.IntegrationEvent),
		returns:     make(map[uuid.UUID]entity.SaleReturn),
		creditNotes: make(map[uuid.UUID]entity.CreditNote),
	}
}

// clone copies the containers. Stored rows are values whose nested slices
// are never modified in place, so sharing them is safe.
func (d *dataset) clone() *dataset {
	return &dataset{
		sales:       maps.Clone(d.sales),
		saleOrder:   slices.Clone(d.saleOrder),
		payments:    slices.Clone(d.payments),
		methods:     maps.Clone(d.methods),
		customers:   maps.Clone(d.customers),
		shifts:      maps.Clone(d.shifts),
		summaries:   maps.Clone(d.summaries),
		cash:        slices.Clone(d.cash),
		levels:      maps.Clone(d.levels),
		movements:   slices.Clone(d.movements),
		warehouses:  maps.Clone(d.warehouses),
		products:    maps.Clone(d.products),
		taxRates:    maps.Clone(d.taxRates),
		sequences:   maps.Clone(d.sequences),
		events:      maps.Clone(d.events),
		returns:     maps.Clone(d.returns),
		creditNotes: maps.Clone(d.creditNotes),
		journals:    slices.Clone(d.journals),
	}
}

// Store is an in-memory implementation of the sales repositories.
// Transactions are serialized; a failed transaction restores the snapshot
// taken when it started.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data *dataset
	dir  *directory
	now  func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{data: newDataset(), dir: newDirectory(), now: time.Now}
}

// session binds repositories to the store, inside or outside a transaction
type session struct {
	s    *Store
	inTx bool
}

// lock guards one repository call. Calls outside a transaction also wait
// for any running transaction so a rollback cannot discard them.
func (ss session) lock() func() {
	if !ss.inTx {
		ss.s.txMu.Lock()
	}
	ss.s.mu.Lock()
	return func() {
		ss.s.mu.Unlock()
		if !ss.inTx {
			ss.s.txMu.Unlock()
		}
	}
}

func (ss session) data() *dataset {
	return ss.s.data
}

func (ss session) now() time.Time {
	return ss.s.now()
}

func (s *Store) repositories(inTx bool) *domainRepo.Repositories {
	ss := session{s: s, inTx: inTx}
	return &domainRepo.Repositories{
		Sales:          &saleRepository{ss},
		Payments:       &paymentRepository{ss},
		PaymentMethods: &paymentMethodRepository{ss},
		Customers:      &customerRepository{ss},
		Shifts:         &shiftRepository{ss},
		Stock:          &stockRepository{ss},
		Products:       &productRepository{ss},
		TaxRates:       &taxRateRepository{ss},
		Sequences:      &sequenceRepository{ss},
		Events:         &eventRepository{ss},
		Returns:        &returnRepository{ss},
		Journals:       &journalRepository{ss},
	}
}

// WithinTransaction runs fn with exclusive access to the store
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *domainRepo.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	rollback := func() {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
	}

	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err = fn(ctx, s.repositories(true)); err != nil {
		rollback()
		return err
	}
	return nil
}

// Repositories returns stores that are not part of any transaction
func (s *Store) Repositories() *domainRepo.Repositories {
	return s.repositories(false)
}

// visible applies the tenant scope of ctx to a row of tenantID
func visible(ctx context.Context, tenantID uuid.UUID) bool {
	id, ok := infraRepo.GetTenantID(ctx)
	return ok && id == tenantID
}

func duplicate(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domainRepo.ErrDuplicate, fmt.Sprintf(format, args...))
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
