package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is the committed point-of-sale document (invoice).
// Totals and lines are written once by the checkout transaction.
type Sale struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_sales_tenant_number" json:"tenant_id"`
	Number         string          `gorm:"size:50;not null;uniqueIndex:idx_sales_tenant_number" json:"number"`
	Status         enum.SaleStatus `gorm:"not null;default:0;index" json:"status"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	ShiftID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"shift_id"`
	WarehouseID    uuid.UUID       `gorm:"type:uuid;not null" json:"warehouse_id"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	Discount       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discount"`
	TaxTotal       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"tax_total"`
	Total          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	Balance        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"balance"`
	AmountTendered decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"amount_tendered"`
	Change         decimal.Decimal `gorm:"column:change_due;type:numeric(14,2);not null;default:0" json:"change"`
	DiscountAuthBy *uuid.UUID      `gorm:"type:uuid" json:"discount_authorized_by,omitempty"`
	TransmittedAt  *time.Time      `json:"transmitted_at,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Customer     *Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Lines        []SaleLine       `gorm:"foreignKey:SaleID" json:"lines,omitempty"`
	TaxSummaries []SaleTaxSummary `gorm:"foreignKey:SaleID" json:"tax_summaries,omitempty"`
	Payments     []Payment        `gorm:"foreignKey:SaleID" json:"payments,omitempty"`
}

// BeforeCreate generates a UUID before creating a new sale
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}

// IsCredit reports whether the sale is still owed by the customer
func (s *Sale) IsCredit() bool {
	return s.Status == enum.SaleStatusCreditPending
}

// SaleLine is one sold product or variant
type SaleLine struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SaleID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	Position        int             `gorm:"not null" json:"position"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID       uuid.UUID       `gorm:"type:uuid" json:"variant_id"`
	Description     string          `gorm:"size:255" json:"description"`
	Quantity        decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount_percent"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	TaxTotal        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"tax_total"`
	Total           decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`

	Taxes []SaleLineTax `gorm:"foreignKey:SaleLineID" json:"taxes,omitempty"`
}

// BeforeCreate generates a UUID before creating a new sale line
func (l *SaleLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleLine model
func (SaleLine) TableName() string {
	return "sale_lines"
}

// SaleLineTax is the tax a single rate produced on a single line
type SaleLineTax struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SaleLineID uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_line_id"`
	TaxRateID  *uuid.UUID      `gorm:"type:uuid" json:"tax_rate_id,omitempty"`
	RateKey    string          `gorm:"size:64;not null" json:"rate_key"`
	Name       string          `gorm:"size:100;not null" json:"name"`
	Rate       decimal.Decimal `gorm:"type:numeric(7,4);not null" json:"rate"`
	Base       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"base"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
}

// BeforeCreate generates a UUID before creating a new line tax
func (t *SaleLineTax) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleLineTax model
func (SaleLineTax) TableName() string {
	return "sale_line_taxes"
}

// SaleTaxSummary aggregates line taxes of one rate across the document
type SaleTaxSummary struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	TaxRateID *uuid.UUID      `gorm:"type:uuid" json:"tax_rate_id,omitempty"`
	RateKey   string          `gorm:"size:64;not null" json:"rate_key"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Rate      decimal.Decimal `gorm:"type:numeric(7,4);not null" json:"rate"`
	Base      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"base"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
}

// BeforeCreate generates a UUID before creating a new tax summary
func (t *SaleTaxSummary) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleTaxSummary model
func (SaleTaxSummary) TableName() string {
	return "sale_tax_summaries"
}
