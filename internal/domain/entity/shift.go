package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shift is a cashier session against which tender is reconciled.
// A user holds at most one open shift (partial unique index on status = 0).
type Shift struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	TenantID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_shifts_one_open,where:status = 0" json:"user_id"`
	WarehouseID  uuid.UUID        `gorm:"type:uuid;not null" json:"warehouse_id"`
	Status       enum.ShiftStatus `gorm:"not null;default:0;index" json:"status"`
	OpeningCash  decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0" json:"opening_cash"`
	ExpectedCash decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0" json:"expected_cash"`
	CountedCash  *decimal.Decimal `gorm:"type:numeric(14,2)" json:"counted_cash,omitempty"`
	Difference   *decimal.Decimal `gorm:"type:numeric(14,2)" json:"difference,omitempty"`
	Notes        *string          `gorm:"type:text" json:"notes,omitempty"`
	OpenedAt     time.Time        `gorm:"not null" json:"opened_at"`
	ClosedAt     *time.Time       `json:"closed_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	Summaries []ShiftSummary `gorm:"foreignKey:ShiftID" json:"summaries,omitempty"`
}

// BeforeCreate generates a UUID before creating a new shift
func (s *Shift) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Shift model
func (Shift) TableName() string {
	return "shifts"
}

// IsOpen reports whether the shift still accepts tender
func (s *Shift) IsOpen() bool {
	return s.Status == enum.ShiftStatusOpen
}

// ShiftSummary holds the running expected amount of one payment method in a shift
type ShiftSummary struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ShiftID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_shift_summaries_method" json:"shift_id"`
	PaymentMethodID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_shift_summaries_method" json:"payment_method_id"`
	MethodCode      string          `gorm:"size:50;not null" json:"method_code"`
	ExpectedAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"expected_amount"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new shift summary
func (s *ShiftSummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ShiftSummary model
func (ShiftSummary) TableName() string {
	return "shift_summaries"
}

// CashMovement is an append-only record of cash entering or leaving the drawer
type CashMovement struct {
	ID        uuid.UUID             `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID             `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ShiftID   uuid.UUID             `gorm:"type:uuid;not null;index" json:"shift_id"`
	Type      enum.CashMovementType `gorm:"not null" json:"type"`
	Amount    decimal.Decimal       `gorm:"type:numeric(14,2);not null" json:"amount"`
	Reference string                `gorm:"size:100" json:"reference,omitempty"`
	Notes     *string               `gorm:"type:text" json:"notes,omitempty"`
	UserID    uuid.UUID             `gorm:"type:uuid;not null" json:"user_id"`
	CreatedAt time.Time             `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new cash movement
func (m *CashMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CashMovement model
func (CashMovement) TableName() string {
	return "cash_movements"
}

// Signed returns the amount with the drawer direction applied
func (m *CashMovement) Signed() decimal.Decimal {
	if m.Type.Outflow() {
		return m.Amount.Neg()
	}
	return m.Amount
}
