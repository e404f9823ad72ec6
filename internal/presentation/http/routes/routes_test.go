package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/config"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/infrastructure/database"
	"github.com/sangkips/investify-pos/internal/infrastructure/memory"
	"github.com/sangkips/investify-pos/internal/presentation/http/handler"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/retry"
	"github.com/sangkips/investify-pos/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tenantSlug    = "corner-shop"
	adminEmail    = "owner@corner.test"
	adminPassword = "owner-pass"
)

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Field     string          `json:"field"`
	Data      json.RawMessage `json:"data"`
}

type server struct {
	t         *testing.T
	router    *gin.Engine
	token     string
	warehouse uuid.UUID
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := memory.NewStore()
	role := store.AddRole("admin", database.DefaultPermissions...)
	hashed, err := utils.HashPassword(adminPassword)
	require.NoError(t, err)
	owner := &entity.User{FirstName: "Olu", LastName: "Owner", Email: adminEmail, Password: hashed, Active: true, Roles: []entity.Role{role}}
	require.NoError(t, store.Users().Create(ctx, owner))
	tenant, err := store.SeedTenant(ctx, tenantSlug, owner.ID)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	policy := retry.Policy{MaxAttempts: 1, Retryable: repository.IsTransient}
	jwtManager := utils.NewJWTManager("routes-secret", time.Hour, 5*time.Minute)
	engine := &service.SaleEngine{
		Taxes:     service.NewTaxEngine(store.Tenants(), "Tax"),
		Allocator: service.NewPaymentAllocator(),
		Credit:    service.NewCreditLedger(),
		Stock:     service.NewStockSynchronizer(false),
		Shifts:    service.NewShiftLedger(),
		Numbers:   service.NewDocumentNumberer(store.Tenants(), nil, 6),
		Events:    service.NewEventPublisher(node),
	}

	handlers := &Handlers{
		Auth:     handler.NewAuthHandler(service.NewAuthService(store.Users(), jwtManager)),
		Sale:     handler.NewSaleHandler(service.NewSaleService(store, store.Permissions(), jwtManager, engine, policy), service.NewCreditService(store, engine)),
		Return:   handler.NewReturnHandler(service.NewReturnService(store, engine)),
		Shift:    handler.NewShiftHandler(service.NewShiftService(store, service.NewShiftLedger(), policy)),
		Customer: handler.NewCustomerHandler(service.NewCustomerService(store.Repositories().Customers)),
		Catalog:  handler.NewCatalogHandler(service.NewCatalogService(store)),
	}
	cfg := &config.Config{
		App:       config.AppConfig{Name: "investify-pos"},
		RateLimit: config.RateLimitConfig{Requests: 1000, Duration: 1},
	}

	s := &server{
		t: t,
		router: Setup(ctx, handlers, &Deps{
			JWTManager:      jwtManager,
			Cfg:             cfg,
			Tenants:         store.Tenants(),
			IdempotencyRepo: store.Idempotency(),
		}),
		warehouse: *tenant.Settings.DefaultWarehouseID,
	}
	return s
}

func (s *server) do(method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant", tenantSlug)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *server) login() {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": adminEmail, "password": adminPassword}, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &out))
	s.token = out.AccessToken
}

// ready logs in, opens a shift and creates a product priced at 1000
func (s *server) ready() uuid.UUID {
	s.t.Helper()
	s.login()

	w, _ := s.do(http.MethodPost, "/api/v1/shifts", gin.H{"warehouse_id": s.warehouse, "opening_cash": "50000"}, nil)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(http.MethodPost, "/api/v1/products", gin.H{"code": "COFFEE", "name": "Coffee", "price": "1000"}, nil)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var product struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &product))
	return product.ID
}

type receipt struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Total         decimal.Decimal `json:"total"`
	Change        decimal.Decimal `json:"change"`
}

func TestCheckoutOverHTTP(t *testing.T) {
	s := newServer(t)
	productID := s.ready()
	body := gin.H{
		"warehouse_id":   s.warehouse,
		"items":          []gin.H{{"product_id": productID, "quantity": "2"}},
		"payment_method": "CASH",
		"cash_received":  "2500",
	}

	w, env := s.do(http.MethodPost, "/api/v1/sales", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Idempotency-Key", env.Field)

	key := map[string]string{"Idempotency-Key": "till-1-0001"}
	w, env = s.do(http.MethodPost, "/api/v1/sales", body, key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first receipt
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.Equal(t, "INV-000001", first.InvoiceNumber)
	assert.True(t, first.Total.Equal(decimal.NewFromInt(2000)))
	assert.True(t, first.Change.Equal(decimal.NewFromInt(500)))

	// a retried request replays instead of selling twice
	w, env = s.do(http.MethodPost, "/api/v1/sales", body, key)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Idempotency-Replayed"))
	var replay receipt
	require.NoError(t, json.Unmarshal(env.Data, &replay))
	assert.Equal(t, first.InvoiceID, replay.InvoiceID)

	body["cash_received"] = "3000"
	w, env = s.do(http.MethodPost, "/api/v1/sales", body, key)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeIdempotencyKeyReused, env.ErrorCode)

	w, env = s.do(http.MethodGet, "/api/v1/sales", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.Pagination.Total)

	w, _ = s.do(http.MethodGet, "/api/v1/sales/"+first.InvoiceID.String(), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckoutErrorsCarryCodes(t *testing.T) {
	s := newServer(t)
	productID := s.ready()

	w, env := s.do(http.MethodPost, "/api/v1/sales", gin.H{
		"warehouse_id":   s.warehouse,
		"items":          []gin.H{{"product_id": productID, "quantity": "2"}},
		"payment_method": "CASH",
		"cash_received":  "1500",
	}, map[string]string{"Idempotency-Key": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeInsufficientFunds, env.ErrorCode)
	assert.False(t, env.Success)

	w, env = s.do(http.MethodPost, "/api/v1/sales", gin.H{
		"warehouse_id":   s.warehouse,
		"items":          []gin.H{{"quantity": "0"}},
		"payment_method": "CASH",
	}, map[string]string{"Idempotency-Key": "invalid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, env.ErrorCode)
	assert.Equal(t, "items[0].product_id", env.Field)

	w, env = s.do(http.MethodGet, "/api/v1/sales/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id", env.Field)
}

func TestProtectedRoutesNeedTokenAndTenant(t *testing.T) {
	s := newServer(t)

	w, env := s.do(http.MethodGet, "/api/v1/sales", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, env.ErrorCode)

	s.login()
	w, _ = s.do(http.MethodGet, "/api/v1/sales", nil, map[string]string{"X-Tenant": "elsewhere"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": adminEmail, "password": "wrong-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, env.ErrorCode)
}

func TestShiftCloseOverHTTP(t *testing.T) {
	s := newServer(t)
	s.ready()

	w, _ := s.do(http.MethodPost, "/api/v1/shifts/current/cash-movements", gin.H{"type": "CASH_OUT", "amount": "1000", "reference": "float"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(http.MethodPost, "/api/v1/shifts/current/close", gin.H{"counted_cash": "49000"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report struct {
		Shift struct {
			ExpectedCash decimal.Decimal `json:"expected_cash"`
			Status       string          `json:"status"`
		} `json:"shift"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.True(t, report.Shift.ExpectedCash.Equal(decimal.NewFromInt(49000)))
	assert.Equal(t, "CLOSED", report.Shift.Status)

	w, env = s.do(http.MethodGet, "/api/v1/shifts/current", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeShiftNotOpen, env.ErrorCode)
}
