package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// currency precision of every stored amount
const currencyPlaces = 2

var hundred = decimal.NewFromInt(100)

// TaxRateDescriptor is one rate applicable to a line
type TaxRateDescriptor struct {
	ID   *uuid.UUID
	Name string
	Rate decimal.Decimal // percentage, 19 means 19%
	Kind enum.TaxKind
}

// Key identifies the rate when grouping document summaries
func (d TaxRateDescriptor) Key() string {
	if d.ID != nil {
		return d.ID.String()
	}
	return "legacy:" + d.Rate.String()
}

// DescriptorFromRate converts a configured tax rate
func DescriptorFromRate(r *entity.TaxRate) TaxRateDescriptor {
	id := r.ID
	return TaxRateDescriptor{ID: &id, Name: r.Name, Rate: r.Rate, Kind: r.Kind}
}

// LineTax is the amount one rate produced on one line
type LineTax struct {
	Rate   TaxRateDescriptor
	Base   decimal.Decimal
	Amount decimal.Decimal
}

// LineTaxResult is the tax breakdown of a line
type LineTaxResult struct {
	Base  decimal.Decimal
	Taxes []LineTax
	Total decimal.Decimal
}

// TaxEngine computes line taxes. Rates never compound: every rate applies to the same base.
type TaxEngine struct {
	tenants     repository.TenantRepository
	legacyLabel string
}

// NewTaxEngine creates a tax engine. legacyLabel names rates synthesized from a
// flat percentage unless the tenant settings carry their own label.
func NewTaxEngine(tenants repository.TenantRepository, legacyLabel string) *TaxEngine {
	if legacyLabel == "" {
		legacyLabel = "Tax"
	}
	return &TaxEngine{tenants: tenants, legacyLabel: legacyLabel}
}

// ForTenant returns the engine that labels legacy rates the way tenantID asks
func (e *TaxEngine) ForTenant(ctx context.Context, tenantID uuid.UUID) (*TaxEngine, error) {
	if e.tenants == nil {
		return e, nil
	}
	tenant, err := e.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil || tenant.Settings.TaxLabel == "" || tenant.Settings.TaxLabel == e.legacyLabel {
		return e, nil
	}
	return &TaxEngine{tenants: e.tenants, legacyLabel: tenant.Settings.TaxLabel}, nil
}

// LineSubtotal returns qty × unit price less the line discount percentage, rounded to currency
func LineSubtotal(qty, unitPrice, discountPercent decimal.Decimal) decimal.Decimal {
	gross := qty.Mul(unitPrice)
	return gross.Mul(hundred.Sub(discountPercent)).Div(hundred).Round(currencyPlaces)
}

// ComputeLine applies rates to base. When rates is empty and legacyRate is set, a single
// rate is synthesized from it. No rates and no legacy rate yields zero tax.
func (e *TaxEngine) ComputeLine(base decimal.Decimal, rates []TaxRateDescriptor, legacyRate *decimal.Decimal) LineTaxResult {
	if len(rates) == 0 && legacyRate != nil && legacyRate.IsPositive() {
		rates = []TaxRateDescriptor{e.LegacyDescriptor(*legacyRate)}
	}

	res := LineTaxResult{Base: base, Total: decimal.Zero}
	for _, r := range rates {
		amount := base.Mul(r.Rate).Div(hundred).Round(currencyPlaces)
		res.Taxes = append(res.Taxes, LineTax{Rate: r, Base: base, Amount: amount})
		res.Total = res.Total.Add(amount)
	}
	return res
}

// LegacyDescriptor synthesizes the rate of a line priced with a flat percentage
func (e *TaxEngine) LegacyDescriptor(rate decimal.Decimal) TaxRateDescriptor {
	return TaxRateDescriptor{
		Name: fmt.Sprintf("%s %s%%", e.legacyLabel, rate.String()),
		Rate: rate,
		Kind: enum.TaxKindVAT,
	}
}

// TaxSummary is the document-level total of one rate
type TaxSummary struct {
	Rate   TaxRateDescriptor
	Base   decimal.Decimal
	Amount decimal.Decimal
}

// TaxSummaryAccumulator groups already-rounded line taxes by rate identity,
// keeping the order in which rates were first seen.
type TaxSummaryAccumulator struct {
	order []string
	byKey map[string]*TaxSummary
	total decimal.Decimal
}

// NewTaxSummaryAccumulator creates an empty accumulator
func NewTaxSummaryAccumulator() *TaxSummaryAccumulator {
	return &TaxSummaryAccumulator{byKey: make(map[string]*TaxSummary)}
}

// Add folds a line result into the summaries
func (a *TaxSummaryAccumulator) Add(res LineTaxResult) {
	for _, t := range res.Taxes {
		key := t.Rate.Key()
		s, ok := a.byKey[key]
		if !ok {
			s = &TaxSummary{Rate: t.Rate}
			a.byKey[key] = s
			a.order = append(a.order, key)
		}
		s.Base = s.Base.Add(t.Base)
		s.Amount = s.Amount.Add(t.Amount)
	}
	a.total = a.total.Add(res.Total)
}

// Summaries returns one entry per rate
func (a *TaxSummaryAccumulator) Summaries() []TaxSummary {
	out := make([]TaxSummary, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, *a.byKey[key])
	}
	return out
}

// Total is the sum of all line taxes
func (a *TaxSummaryAccumulator) Total() decimal.Decimal {
	return a.total
}
