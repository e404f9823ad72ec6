package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/application/worker"
	"github.com/sangkips/investify-pos/internal/config"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/infrastructure/database"
	"github.com/sangkips/investify-pos/internal/infrastructure/memory"
	"github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/sangkips/investify-pos/internal/presentation/http/handler"
	"github.com/sangkips/investify-pos/internal/presentation/http/routes"
	"github.com/sangkips/investify-pos/pkg/retry"
	"github.com/sangkips/investify-pos/pkg/utils"
	"github.com/shopspring/decimal"
)

// backend is what the rest of the process needs from a store
type backend struct {
	uow         domainRepo.UnitOfWork
	tenants     domainRepo.TenantRepository
	users       domainRepo.UserRepository
	permissions domainRepo.PermissionChecker
	customers   domainRepo.CustomerRepository
	idempotency domainRepo.IdempotencyRepository
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.Store.Driver == "memory" {
		store := memory.NewStore()
		if err := store.SeedDefaults(ctx); err != nil {
			return nil, err
		}
		log.Println("Using in-memory store, data is lost on exit")
		return &backend{
			uow:         store,
			tenants:     store.Tenants(),
			users:       store.Users(),
			permissions: store.Permissions(),
			customers:   store.Repositories().Customers,
			idempotency: store.Idempotency(),
		}, nil
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	if err := database.SeedDefaultData(db); err != nil {
		log.Printf("Warning: Failed to seed default data: %v", err)
	}
	return &backend{
		uow:         repository.NewUnitOfWork(db),
		tenants:     repository.NewTenantRepository(db),
		users:       repository.NewUserRepository(db),
		permissions: repository.NewPermissionChecker(db),
		customers:   repository.NewCustomerRepository(db),
		idempotency: repository.NewIdempotencyRepository(db),
	}, nil
}

// purgeIdempotencyKeys drops expired replay keys once an hour
func purgeIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n, err := repo.DeleteExpired(ctx, now); err != nil {
				log.Printf("[idempotency] purge failed: %v", err)
			} else if n > 0 {
				log.Printf("[idempotency] purged %d expired keys", n)
			}
		}
	}
}

func main() {
	cfg := config.Load()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Money goes out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	node, err := snowflake.NewNode(cfg.Outbox.NodeID)
	if err != nil {
		log.Fatalf("Invalid OUTBOX_NODE_ID: %v", err)
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours, cfg.JWT.OverrideExpiry)
	readPolicy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
		Retryable:   domainRepo.IsTransient,
	}

	engine := &service.SaleEngine{
		Taxes:     service.NewTaxEngine(store.tenants, cfg.Sales.TaxLabel),
		Allocator: service.NewPaymentAllocator(),
		Credit:    service.NewCreditLedger(),
		Stock:     service.NewStockSynchronizer(cfg.Sales.BlockOversell()),
		Shifts:    service.NewShiftLedger(),
		Numbers: service.NewDocumentNumberer(store.tenants, map[string]string{
			entity.SequenceInvoice:    cfg.Sales.InvoicePrefix,
			entity.SequenceReturn:     cfg.Sales.ReturnPrefix,
			entity.SequenceCreditNote: cfg.Sales.CreditNotePrefix,
		}, cfg.Sales.NumberPadding),
		Events: service.NewEventPublisher(node),
	}

	authService := service.NewAuthService(store.users, jwtManager)
	saleService := service.NewSaleService(store.uow, store.permissions, jwtManager, engine, readPolicy)
	returnService := service.NewReturnService(store.uow, engine)
	creditService := service.NewCreditService(store.uow, engine)
	shiftService := service.NewShiftService(store.uow, service.NewShiftLedger(), readPolicy)
	catalogService := service.NewCatalogService(store.uow)
	customerService := service.NewCustomerService(store.customers)
	accountingService := service.NewAccountingService(store.uow, service.AccountMap{
		Cash:         cfg.Accounting.Cash,
		Bank:         cfg.Accounting.Bank,
		Receivable:   cfg.Accounting.Receivable,
		Revenue:      cfg.Accounting.Revenue,
		TaxPayable:   cfg.Accounting.TaxPayable,
		CostOfSales:  cfg.Accounting.CostOfSales,
		Inventory:    cfg.Accounting.Inventory,
		SalesReturns: cfg.Accounting.SalesReturns,
	})

	outbox := worker.NewOutboxWorker(store.uow, accountingService, worker.OutboxConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		BaseDelay:    cfg.Outbox.BaseDelay,
		MaxDelay:     cfg.Outbox.MaxDelay,
	}, readPolicy)
	go outbox.Run(ctx)
	go purgeIdempotencyKeys(ctx, store.idempotency)

	handlers := &routes.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Sale:     handler.NewSaleHandler(saleService, creditService),
		Return:   handler.NewReturnHandler(returnService),
		Shift:    handler.NewShiftHandler(shiftService),
		Customer: handler.NewCustomerHandler(customerService),
		Catalog:  handler.NewCatalogHandler(catalogService),
	}

	router := routes.Setup(ctx, handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		Tenants:         store.tenants,
		IdempotencyRepo: store.idempotency,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}
