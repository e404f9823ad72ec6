package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
)

// ShiftHandler handles the cashier's drawer session
type ShiftHandler struct {
	shiftService *service.ShiftService
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(shiftService *service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: shiftService}
}

// Open starts a shift for the current user
func (h *ShiftHandler) Open(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.OpenShiftRequest
	if !bindJSON(c, &req) {
		return
	}

	shift, err := h.shiftService.Open(c.Request.Context(), &service.OpenShiftInput{
		UserID:      userID,
		WarehouseID: req.WarehouseID,
		OpeningCash: req.OpeningCash,
		Notes:       req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Shift opened", shift)
}

// Current returns the open shift with its per-method totals
func (h *ShiftHandler) Current(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	report, err := h.shiftService.Current(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Shift retrieved successfully", report)
}

// Close ends the current shift against the counted drawer
func (h *ShiftHandler) Close(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.CloseShiftRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.shiftService.Close(c.Request.Context(), &service.CloseShiftInput{
		UserID:      userID,
		CountedCash: req.CountedCash,
		Notes:       req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Shift closed", report)
}

// AddCashMovement records a cash in or cash out on the current shift
func (h *ShiftHandler) AddCashMovement(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.CashMovementRequest
	if !bindJSON(c, &req) {
		return
	}

	movementType := enum.CashMovementCashIn
	if req.Type == "CASH_OUT" {
		movementType = enum.CashMovementCashOut
	}

	movement, err := h.shiftService.AddCashMovement(c.Request.Context(), &service.CashMovementInput{
		UserID:    userID,
		Type:      movementType,
		Amount:    req.Amount,
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Cash movement recorded", movement)
}
