package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
)

// ReturnHandler handles returns against sales
type ReturnHandler struct {
	returnService *service.ReturnService
}

// NewReturnHandler creates a new return handler
func NewReturnHandler(returnService *service.ReturnService) *ReturnHandler {
	return &ReturnHandler{returnService: returnService}
}

// Create handles a return of some or all units of a sale
// @Summary Create return
// @Tags sales
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Sale ID"
// @Param request body request.ReturnRequest true "Returned lines"
// @Success 201 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /sales/{id}/returns [post]
func (h *ReturnHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	saleID, ok := pathID(c, "sale")
	if !ok {
		return
	}

	var req request.ReturnRequest
	if !bindJSON(c, &req) {
		return
	}

	lines := make([]service.ReturnLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, service.ReturnLineInput{SaleLineID: l.SaleLineID, Quantity: l.Quantity})
	}

	ret, err := h.returnService.Create(c.Request.Context(), &service.ReturnInput{
		UserID:         userID,
		SaleID:         saleID,
		Lines:          lines,
		RefundMethodID: req.RefundMethodID,
		Reason:         req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Return recorded", ret)
}
