package entity

import (
	"time"

	"github.com/google/uuid"
)

// Sequence keys
const (
	SequenceInvoice    = "INVOICE"
	SequenceReturn     = "RETURN"
	SequenceCreditNote = "CREDIT_NOTE"
)

// DocumentSequence is the per-tenant counter behind document numbers
type DocumentSequence struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"tenant_id"`
	Key       string    `gorm:"size:30;primaryKey" json:"key"`
	NextValue int64     `gorm:"not null;default:1" json:"next_value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the DocumentSequence model
func (DocumentSequence) TableName() string {
	return "document_sequences"
}
