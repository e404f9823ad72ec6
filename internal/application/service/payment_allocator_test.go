package service

import (
	"testing"

	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cashMethod   = &entity.PaymentMethod{Code: "CASH", Kind: enum.PaymentKindCash}
	cardMethod   = &entity.PaymentMethod{Code: "CARD", Kind: enum.PaymentKindCard}
	creditMethod = &entity.PaymentMethod{Code: "CREDIT", Kind: enum.PaymentKindCredit}
)

func TestAllocate(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		tenders []Tender
		change  string
		applied []string
		code    string
	}{
		{
			name:    "exact cash",
			total:   "23800",
			tenders: []Tender{{Method: cashMethod, Amount: dec("23800")}},
			change:  "0",
			applied: []string{"23800"},
		},
		{
			name:    "cash with change",
			total:   "23800",
			tenders: []Tender{{Method: cashMethod, Amount: dec("25000")}},
			change:  "1200",
			applied: []string{"23800"},
		},
		{
			name:    "card then cash with change",
			total:   "23800",
			tenders: []Tender{{Method: cardMethod, Amount: dec("8800")}, {Method: cashMethod, Amount: dec("20000")}},
			change:  "5000",
			applied: []string{"8800", "15000"},
		},
		{
			name:    "change spread over two cash legs",
			total:   "100",
			tenders: []Tender{{Method: cashMethod, Amount: dec("30")}, {Method: cashMethod, Amount: dec("100")}},
			change:  "30",
			applied: []string{"0", "100"},
		},
		{
			name:    "short by less than a cent",
			total:   "10.00",
			tenders: []Tender{{Method: cardMethod, Amount: dec("9.995")}},
			change:  "0",
			applied: []string{"9.995"},
		},
		{
			name:    "short",
			total:   "100",
			tenders: []Tender{{Method: cashMethod, Amount: dec("50")}, {Method: cardMethod, Amount: dec("49")}},
			code:    apperror.CodeInsufficientFunds,
		},
		{
			name:    "change from card",
			total:   "100",
			tenders: []Tender{{Method: cardMethod, Amount: dec("120")}},
			code:    apperror.CodeChangeRequiresCash,
		},
		{
			name:    "change larger than cash",
			total:   "100",
			tenders: []Tender{{Method: cashMethod, Amount: dec("10")}, {Method: cardMethod, Amount: dec("120")}},
			code:    apperror.CodeChangeRequiresCash,
		},
		{
			name:    "credit leg",
			total:   "100",
			tenders: []Tender{{Method: creditMethod, Amount: dec("100")}},
			code:    apperror.CodeValidation,
		},
		{
			name:    "free sale",
			total:   "0",
			tenders: []Tender{{Method: cashMethod, Amount: dec("0")}},
			change:  "0",
			applied: []string{"0"},
		},
		{
			name:    "nothing tendered",
			total:   "100",
			tenders: []Tender{{Method: cashMethod, Amount: dec("0")}},
			code:    apperror.CodeInsufficientFunds,
		},
		{
			name:    "negative leg",
			total:   "100",
			tenders: []Tender{{Method: cashMethod, Amount: dec("-5")}},
			code:    apperror.CodeValidation,
		},
		{
			name:    "no tender",
			total:   "100",
			code:    apperror.CodeValidation,
		},
	}

	allocator := NewPaymentAllocator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc, err := allocator.Allocate(dec(tt.total), tt.tenders)
			if tt.code != "" {
				assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, alloc.Change.Equal(dec(tt.change)), "change %s", alloc.Change)
			require.Len(t, alloc.Legs, len(tt.applied))

			sum := dec("0")
			for i, leg := range alloc.Legs {
				assert.True(t, leg.Applied.Equal(dec(tt.applied[i])), "leg %d applied %s", i, leg.Applied)
				sum = sum.Add(leg.Applied)
			}
			assert.True(t, sum.Equal(alloc.Tendered.Sub(alloc.Change)))
		})
	}
}

func TestAllocationCashApplied(t *testing.T) {
	alloc, err := NewPaymentAllocator().Allocate(dec("23800"), []Tender{
		{Method: cashMethod, Amount: dec("20000")},
		{Method: cardMethod, Amount: dec("8800")},
	})
	require.NoError(t, err)
	assert.True(t, alloc.Change.Equal(dec("5000")))
	assert.True(t, alloc.CashApplied().Equal(dec("15000")))
}
