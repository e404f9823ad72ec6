package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-pos/internal/config"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/presentation/http/handler"
	"github.com/sangkips/investify-pos/internal/presentation/http/middleware"
	"github.com/sangkips/investify-pos/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth     *handler.AuthHandler
	Sale     *handler.SaleHandler
	Return   *handler.ReturnHandler
	Shift    *handler.ShiftHandler
	Customer *handler.CustomerHandler
	Catalog  *handler.CatalogHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	Tenants         domainRepo.TenantRepository
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes. Background cleanup
// started here stops with ctx.
func Setup(ctx context.Context, h *Handlers, deps *Deps) *gin.Engine {
	handler.UseJSONFieldNames()
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	requests, seconds := deps.Cfg.RateLimit.Requests, deps.Cfg.RateLimit.Duration
	if seconds < 1 {
		seconds = 1
	}
	rateLimiter := middleware.NewRateLimiter(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: float64(requests) / float64(seconds),
		BurstSize:         requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})

	v1 := router.Group("/api/v1")
	{
		// Public routes, limited per client IP
		public := v1.Group("")
		public.Use(rateLimiter.Middleware())
		registerAuthRoutes(public, h)

		// Authenticated and scoped to one tenant, limited per tenant
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(middleware.TenantMiddleware(deps.Tenants))
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	idempotency := middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo}

	protected.GET("/profile", h.Auth.GetProfile)
	protected.POST("/auth/discount-override", h.Auth.IssueOverride)

	registerSaleRoutes(protected, h, idempotency)
	registerShiftRoutes(protected, h)
	registerCustomerRoutes(protected, h)
	registerCatalogRoutes(protected, h)
}

func registerSaleRoutes(protected *gin.RouterGroup, h *Handlers, idempotency middleware.IdempotencyConfig) {
	sales := protected.Group("/sales")
	sales.Use(middleware.RequirePermission(entity.PermissionManageSales))
	{
		sales.GET("", h.Sale.List)
		sales.POST("", middleware.IdempotencyRequired(idempotency), h.Sale.Checkout)
		sales.GET("/:id", h.Sale.Get)
		sales.POST("/:id/settlements", middleware.Idempotency(idempotency), h.Sale.Settle)
		sales.POST("/:id/transmitted", h.Sale.MarkTransmitted)
		sales.POST("/:id/returns",
			middleware.RequirePermission(entity.PermissionProcessReturns),
			middleware.Idempotency(idempotency),
			h.Return.Create)
	}
}

func registerShiftRoutes(protected *gin.RouterGroup, h *Handlers) {
	shifts := protected.Group("/shifts")
	shifts.Use(middleware.RequirePermission(entity.PermissionManageShifts))
	{
		shifts.POST("", h.Shift.Open)
		shifts.GET("/current", h.Shift.Current)
		shifts.POST("/current/close", h.Shift.Close)
		shifts.POST("/current/cash-movements", h.Shift.AddCashMovement)
	}
}

func registerCustomerRoutes(protected *gin.RouterGroup, h *Handlers) {
	customers := protected.Group("/customers")
	customers.Use(middleware.RequirePermission(entity.PermissionManageCustomers))
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
		customers.PUT("/:id", h.Customer.Update)
	}
}

// registerCatalogRoutes leaves reads open to every operator; the till needs them
func registerCatalogRoutes(protected *gin.RouterGroup, h *Handlers) {
	manage := middleware.RequirePermission(entity.PermissionManageCatalog)

	protected.GET("/products", h.Catalog.ListProducts)
	protected.GET("/products/:id", h.Catalog.GetProduct)
	protected.POST("/products", manage, h.Catalog.CreateProduct)

	protected.GET("/tax-rates", h.Catalog.ListTaxRates)
	protected.POST("/tax-rates", manage, h.Catalog.CreateTaxRate)

	protected.GET("/payment-methods", h.Catalog.ListPaymentMethods)
	protected.POST("/payment-methods", manage, h.Catalog.CreatePaymentMethod)

	protected.GET("/warehouses", h.Catalog.ListWarehouses)
	protected.POST("/warehouses", manage, h.Catalog.CreateWarehouse)

	protected.GET("/stock-levels", h.Catalog.ListStockLevels)
	protected.PUT("/stock-levels", manage, h.Catalog.SetStockLevel)
}
