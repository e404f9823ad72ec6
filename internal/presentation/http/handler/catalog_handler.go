package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/pagination"
)

// CatalogHandler handles products and the reference data a till needs
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// CreateProduct handles creating a product with variants, recipe and default taxes
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	trackStock := true
	if req.TrackStock != nil {
		trackStock = *req.TrackStock
	}

	input := &service.CreateProductInput{
		UserID:        userID,
		Code:          req.Code,
		Name:          req.Name,
		Price:         req.Price,
		CostPrice:     req.CostPrice,
		TrackStock:    trackStock,
		IsComposite:   req.IsComposite,
		ConsumeRecipe: req.ConsumeRecipe,
		Notes:         req.Notes,
		TaxRateIDs:    req.TaxRateIDs,
	}
	for _, v := range req.Variants {
		input.Variants = append(input.Variants, service.VariantInput{SKU: v.SKU, Name: v.Name, Price: v.Price})
	}
	for _, comp := range req.Components {
		input.Components = append(input.Components, service.ComponentInput{IngredientID: comp.IngredientID, Quantity: comp.Quantity})
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Product created successfully", product)
}

// ListProducts handles listing products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))

	result, err := h.catalogService.ListProducts(c.Request.Context(), &pagination.PaginationParams{
		Page:    page,
		PerPage: perPage,
	}, c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Products retrieved successfully", result)
}

// GetProduct handles getting a single product
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "product")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product retrieved successfully", product)
}

// CreateTaxRate handles creating a tax rate
func (h *CatalogHandler) CreateTaxRate(c *gin.Context) {
	var req request.CreateTaxRateRequest
	if !bindJSON(c, &req) {
		return
	}

	rate, err := h.catalogService.CreateTaxRate(c.Request.Context(), &service.CreateTaxRateInput{
		Name: req.Name,
		Rate: req.Rate,
		Kind: req.Kind,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Tax rate created successfully", rate)
}

// ListTaxRates handles listing tax rates
func (h *CatalogHandler) ListTaxRates(c *gin.Context) {
	rates, err := h.catalogService.ListTaxRates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Tax rates retrieved successfully", rates)
}

// CreatePaymentMethod handles creating a payment method
func (h *CatalogHandler) CreatePaymentMethod(c *gin.Context) {
	var req request.CreatePaymentMethodRequest
	if !bindJSON(c, &req) {
		return
	}

	method, err := h.catalogService.CreatePaymentMethod(c.Request.Context(), &service.CreatePaymentMethodInput{
		Code: req.Code,
		Name: req.Name,
		Kind: req.Kind,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment method created successfully", method)
}

// ListPaymentMethods handles listing payment methods
func (h *CatalogHandler) ListPaymentMethods(c *gin.Context) {
	methods, err := h.catalogService.ListPaymentMethods(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment methods retrieved successfully", methods)
}

// CreateWarehouse handles creating a warehouse
func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	var req request.CreateWarehouseRequest
	if !bindJSON(c, &req) {
		return
	}

	warehouse, err := h.catalogService.CreateWarehouse(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Warehouse created successfully", warehouse)
}

// ListWarehouses handles listing warehouses
func (h *CatalogHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.catalogService.ListWarehouses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Warehouses retrieved successfully", warehouses)
}

// SetStockLevel handles recording an initial or counted quantity
func (h *CatalogHandler) SetStockLevel(c *gin.Context) {
	var req request.SetStockLevelRequest
	if !bindJSON(c, &req) {
		return
	}

	level, err := h.catalogService.SetStockLevel(c.Request.Context(), &service.SetStockLevelInput{
		WarehouseID:     req.WarehouseID,
		ProductID:       req.ProductID,
		VariantID:       req.VariantID,
		Quantity:        req.Quantity,
		ReorderPoint:    req.ReorderPoint,
		ReorderQuantity: req.ReorderQuantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock level saved", level)
}

// ListStockLevels handles listing the levels of one warehouse
func (h *CatalogHandler) ListStockLevels(c *gin.Context) {
	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		response.Error(c, apperror.NewFieldError("warehouse_id", "Warehouse is required"))
		return
	}

	levels, err := h.catalogService.ListStockLevels(c.Request.Context(), warehouseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock levels retrieved successfully", levels)
}
