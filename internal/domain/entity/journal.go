package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Journal entry kinds
const (
	JournalKindSale        = "SALE"
	JournalKindCostOfSales = "COST_OF_SALES"
	JournalKindReturn      = "RETURN"
	JournalKindReturnCost  = "RETURN_COST"
	JournalKindSettlement  = "SETTLEMENT"
)

// JournalEntry is a balanced accounting post derived from a sales document
type JournalEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Kind        string    `gorm:"size:30;not null;uniqueIndex:idx_journal_entries_source" json:"kind"`
	SourceType  string    `gorm:"size:30;not null;uniqueIndex:idx_journal_entries_source" json:"source_type"`
	SourceID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_journal_entries_source" json:"source_id"`
	Reference   string    `gorm:"size:50;not null" json:"reference"`
	Description string    `gorm:"size:255" json:"description"`
	PostedAt    time.Time `gorm:"not null" json:"posted_at"`
	CreatedAt   time.Time `json:"created_at"`

	Lines []JournalLine `gorm:"foreignKey:EntryID" json:"lines"`
}

// BeforeCreate generates a UUID before creating a new journal entry
func (e *JournalEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the JournalEntry model
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// Totals returns the debit and credit sums of the entry
func (e *JournalEntry) Totals() (debit, credit decimal.Decimal) {
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// JournalLine is one account movement of an entry
type JournalLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	EntryID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"entry_id"`
	AccountCode string          `gorm:"size:20;not null;index" json:"account_code"`
	Debit       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"debit"`
	Credit      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"credit"`
	Memo        string          `gorm:"size:255" json:"memo,omitempty"`
}

// BeforeCreate generates a UUID before creating a new journal line
func (l *JournalLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the JournalLine model
func (JournalLine) TableName() string {
	return "journal_lines"
}
