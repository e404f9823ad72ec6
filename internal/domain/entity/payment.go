package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethod is a tender configured for a tenant
type PaymentMethod struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_payment_methods_tenant_code" json:"tenant_id"`
	Code      string           `gorm:"size:50;not null;uniqueIndex:idx_payment_methods_tenant_code" json:"code"`
	Name      string           `gorm:"size:100;not null" json:"name"`
	Kind      enum.PaymentKind `gorm:"not null;default:0" json:"kind"`
	Active    bool             `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new payment method
func (m *PaymentMethod) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PaymentMethod model
func (PaymentMethod) TableName() string {
	return "payment_methods"
}

// Payment is an amount applied to a sale through one method
type Payment struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	TenantID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"tenant_id"`
	SaleID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"sale_id"`
	ShiftID         uuid.UUID        `gorm:"type:uuid;not null;index" json:"shift_id"`
	PaymentMethodID uuid.UUID        `gorm:"type:uuid;not null" json:"payment_method_id"`
	MethodCode      string           `gorm:"size:50;not null" json:"method_code"`
	Kind            enum.PaymentKind `gorm:"not null" json:"kind"`
	Amount          decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"amount"`
	Tendered        decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"tendered"`
	Reference       *string          `gorm:"size:255" json:"reference,omitempty"`
	Notes           *string          `gorm:"type:text" json:"notes,omitempty"`
	UserID          uuid.UUID        `gorm:"type:uuid;not null" json:"user_id"`
	CreatedAt       time.Time        `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
