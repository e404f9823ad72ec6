package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleReturn reverses part or all of a sale. The sale itself is never edited.
type SaleReturn struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_sale_returns_tenant_number" json:"tenant_id"`
	Number          string          `gorm:"size:50;not null;uniqueIndex:idx_sale_returns_tenant_number" json:"number"`
	SaleID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ShiftID         *uuid.UUID      `gorm:"type:uuid" json:"shift_id,omitempty"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null" json:"user_id"`
	Reason          string          `gorm:"type:text" json:"reason"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	TaxTotal        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"tax_total"`
	Discount        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discount"`
	Total           decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	CreditApplied   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"credit_applied"`
	Refunded        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"refunded"`
	RefundMethodID  *uuid.UUID      `gorm:"type:uuid" json:"refund_method_id,omitempty"`
	RefundKind      *string         `gorm:"size:20" json:"refund_kind,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`

	Lines      []SaleReturnLine `gorm:"foreignKey:ReturnID" json:"lines,omitempty"`
	CreditNote *CreditNote      `gorm:"foreignKey:ReturnID" json:"credit_note,omitempty"`
}

// BeforeCreate generates a UUID before creating a new return
func (r *SaleReturn) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleReturn model
func (SaleReturn) TableName() string {
	return "sale_returns"
}

// SaleReturnLine is the returned quantity of one sale line
type SaleReturnLine struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ReturnID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"return_id"`
	SaleLineID uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_line_id"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	VariantID  uuid.UUID       `gorm:"type:uuid;not null" json:"variant_id"`
	Quantity   decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	Subtotal   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	TaxTotal   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"tax_total"`
}

// BeforeCreate generates a UUID before creating a new return line
func (l *SaleReturnLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleReturnLine model
func (SaleReturnLine) TableName() string {
	return "sale_return_lines"
}

// CreditNote is issued when a return hits a sale already transmitted to the tax authority
type CreditNote struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_credit_notes_tenant_number" json:"tenant_id"`
	Number    string          `gorm:"size:50;not null;uniqueIndex:idx_credit_notes_tenant_number" json:"number"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ReturnID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"return_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	TaxAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"tax_amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new credit note
func (n *CreditNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CreditNote model
func (CreditNote) TableName() string {
	return "credit_notes"
}
