package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutItemRequest is one line of a checkout
type CheckoutItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	VariantID *uuid.UUID       `json:"variant_id"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal  `json:"discount"`
	TaxRate   *decimal.Decimal `json:"tax_rate"`
	// AppliedTaxes distinguishes a missing list (product defaults) from [] (untaxed)
	AppliedTaxes []uuid.UUID `json:"applied_taxes" binding:"omitempty,dive,required"`
}

// CheckoutPaymentRequest is one tender leg
type CheckoutPaymentRequest struct {
	PaymentMethodID uuid.UUID       `json:"payment_method_id" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Reference       *string         `json:"reference" binding:"omitempty,max=100"`
	Notes           *string         `json:"notes"`
}

// CheckoutRequest represents a checkout request
type CheckoutRequest struct {
	CustomerID            *uuid.UUID               `json:"customer_id"`
	WarehouseID           uuid.UUID                `json:"warehouse_id" binding:"required"`
	Items                 []CheckoutItemRequest    `json:"items" binding:"required,min=1,dive"`
	PaymentMethod         string                   `json:"payment_method" binding:"required_without=Payments,max=50"`
	Payments              []CheckoutPaymentRequest `json:"payments" binding:"omitempty,dive"`
	Discount              decimal.Decimal          `json:"discount"`
	CashReceived          *decimal.Decimal         `json:"cash_received"`
	DiscountOverrideToken string                   `json:"discount_override_token"`
}

// SettleRequest is a payment towards a credit sale
type SettleRequest struct {
	PaymentMethodID uuid.UUID       `json:"payment_method_id" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Reference       *string         `json:"reference" binding:"omitempty,max=100"`
	Notes           *string         `json:"notes"`
}

// ReturnLineRequest is a quantity of one sale line brought back
type ReturnLineRequest struct {
	SaleLineID uuid.UUID       `json:"sale_line_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// ReturnRequest represents a return against a sale
type ReturnRequest struct {
	Lines          []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
	RefundMethodID *uuid.UUID          `json:"refund_method_id"`
	Reason         string              `json:"reason" binding:"max=500"`
}
