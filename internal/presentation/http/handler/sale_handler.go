package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-pos/pkg/pagination"
)

// SaleHandler handles checkout and sale queries
type SaleHandler struct {
	saleService   *service.SaleService
	creditService *service.CreditService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *service.SaleService, creditService *service.CreditService) *SaleHandler {
	return &SaleHandler{saleService: saleService, creditService: creditService}
}

func checkoutInput(userID uuid.UUID, req *request.CheckoutRequest) *service.CheckoutInput {
	input := &service.CheckoutInput{
		UserID:                userID,
		CustomerID:            req.CustomerID,
		WarehouseID:           req.WarehouseID,
		PaymentMethod:         req.PaymentMethod,
		Discount:              req.Discount,
		CashReceived:          req.CashReceived,
		DiscountOverrideToken: req.DiscountOverrideToken,
		Items:                 make([]service.CheckoutItemInput, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.CheckoutItemInput{
			ProductID:       item.ProductID,
			VariantID:       item.VariantID,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.Discount,
			TaxRate:         item.TaxRate,
			AppliedTaxes:    item.AppliedTaxes,
		})
	}
	for _, p := range req.Payments {
		input.Payments = append(input.Payments, service.CheckoutPaymentInput{
			PaymentMethodID: p.PaymentMethodID,
			Amount:          p.Amount,
			Reference:       p.Reference,
			Notes:           p.Notes,
		})
	}
	return input
}

// Checkout handles a till checkout
// @Summary Checkout
// @Description Price, pay and commit a sale. Requires an Idempotency-Key header.
// @Tags sales
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.CheckoutRequest true "Checkout"
// @Success 201 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /sales [post]
func (h *SaleHandler) Checkout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	receipt, err := h.saleService.Checkout(c.Request.Context(), checkoutInput(userID, &req))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Sale completed", receipt)
}

// List handles listing sales
func (h *SaleHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))

	params := &repository.SaleFilterParams{
		Pagination: &pagination.PaginationParams{Page: page, PerPage: perPage},
		Search:     c.Query("search"),
	}

	if status, ok := enum.ParseSaleStatus(c.Query("status")); ok {
		params.Status = &status
	}

	if customerIDStr := c.Query("customer_id"); customerIDStr != "" {
		if customerID, err := uuid.Parse(customerIDStr); err == nil {
			params.CustomerID = &customerID
		}
	}

	if shiftIDStr := c.Query("shift_id"); shiftIDStr != "" {
		if shiftID, err := uuid.Parse(shiftIDStr); err == nil {
			params.ShiftID = &shiftID
		}
	}

	if startDateStr := c.Query("start_date"); startDateStr != "" {
		if startDate, err := time.Parse("2006-01-02", startDateStr); err == nil {
			params.StartDate = &startDate
		}
	}

	// end_date covers the whole day
	if endDateStr := c.Query("end_date"); endDateStr != "" {
		if endDate, err := time.Parse("2006-01-02", endDateStr); err == nil {
			endDate = endDate.Add(24*time.Hour - time.Nanosecond)
			params.EndDate = &endDate
		}
	}

	result, err := h.saleService.ListSales(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Sales retrieved successfully", result)
}

// Get handles getting a single sale with lines, taxes and payments
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "sale")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale retrieved successfully", sale)
}

// Settle records a payment towards a credit sale
// @Summary Settle credit
// @Tags sales
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Sale ID"
// @Param request body request.SettleRequest true "Payment"
// @Success 201 {object} response.APIResponse
// @Router /sales/{id}/settlements [post]
func (h *SaleHandler) Settle(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "sale")
	if !ok {
		return
	}

	var req request.SettleRequest
	if !bindJSON(c, &req) {
		return
	}

	settlement, err := h.creditService.Settle(c.Request.Context(), &service.SettleInput{
		UserID:          userID,
		SaleID:          id,
		PaymentMethodID: req.PaymentMethodID,
		Amount:          req.Amount,
		Reference:       req.Reference,
		Notes:           req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment recorded", settlement)
}

// MarkTransmitted flags a sale as reported to the tax authority
func (h *SaleHandler) MarkTransmitted(c *gin.Context) {
	id, ok := pathID(c, "sale")
	if !ok {
		return
	}

	sale, err := h.saleService.MarkTransmitted(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale marked as transmitted", sale)
}
