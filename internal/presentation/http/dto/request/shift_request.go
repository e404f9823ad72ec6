package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpenShiftRequest represents a shift opening
type OpenShiftRequest struct {
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	OpeningCash decimal.Decimal `json:"opening_cash"`
	Notes       *string         `json:"notes"`
}

// CloseShiftRequest carries the counted drawer
type CloseShiftRequest struct {
	CountedCash decimal.Decimal `json:"counted_cash"`
	Notes       *string         `json:"notes"`
}

// CashMovementRequest is cash put into or taken out of the drawer
type CashMovementRequest struct {
	Type      string          `json:"type" binding:"required,oneof=CASH_IN CASH_OUT"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" binding:"max=100"`
	Notes     *string         `json:"notes"`
}
