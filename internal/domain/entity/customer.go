package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalkInCustomerCode identifies the anonymous counter customer of a tenant
const WalkInCustomerCode = "WALK-IN"

// Customer represents a customer that can buy on account
type Customer struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customers_tenant_code" json:"tenant_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Code     string    `gorm:"size:50;not null;uniqueIndex:idx_customers_tenant_code" json:"code"`
	Name     string    `gorm:"size:255;not null" json:"name"`
	Email    *string   `gorm:"size:255" json:"email,omitempty"`
	Phone    *string   `gorm:"size:50" json:"phone,omitempty"`
	TaxID    *string   `gorm:"size:50" json:"tax_id,omitempty"`
	Address  *string   `gorm:"type:text" json:"address,omitempty"`
	IsWalkIn bool      `gorm:"not null;default:false" json:"is_walk_in"`
	// CreditLimit nil means no limit is configured; zero means no credit is extended.
	CreditLimit    *decimal.Decimal `gorm:"type:numeric(14,2)" json:"credit_limit"`
	CurrentBalance decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0" json:"current_balance"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// NewWalkInCustomer builds the tenant's anonymous customer record
func NewWalkInCustomer(tenantID, userID uuid.UUID) *Customer {
	zero := decimal.Zero
	return &Customer{
		TenantID:    tenantID,
		UserID:      userID,
		Code:        WalkInCustomerCode,
		Name:        "Walk-in customer",
		IsWalkIn:    true,
		CreditLimit: &zero,
	}
}
