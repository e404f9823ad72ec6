package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineSubtotal(t *testing.T) {
	assert.True(t, LineSubtotal(dec("2"), dec("10000"), dec("0")).Equal(dec("20000")))
	assert.True(t, LineSubtotal(dec("3"), dec("9.99"), dec("10")).Equal(dec("26.97")))
	assert.True(t, LineSubtotal(dec("0.333"), dec("1"), dec("0")).Equal(dec("0.33")))
	assert.True(t, LineSubtotal(dec("1"), dec("50"), dec("100")).IsZero())
}

func TestComputeLineRatesShareTheBase(t *testing.T) {
	engine := NewTaxEngine(nil, "Tax")
	vat := DescriptorFromRate(&entity.TaxRate{ID: uuid.New(), Name: "IVA 19%", Rate: dec("19"), Kind: enum.TaxKindVAT})
	ico := DescriptorFromRate(&entity.TaxRate{ID: uuid.New(), Name: "INC 8%", Rate: dec("8"), Kind: enum.TaxKindConsumption})

	res := engine.ComputeLine(dec("100"), []TaxRateDescriptor{vat, ico}, nil)
	require.Len(t, res.Taxes, 2)
	assert.True(t, res.Taxes[0].Amount.Equal(dec("19")))
	assert.True(t, res.Taxes[1].Amount.Equal(dec("8")))
	assert.True(t, res.Total.Equal(dec("27")))
}

func TestComputeLineLegacyRate(t *testing.T) {
	engine := NewTaxEngine(nil, "")
	rate := dec("5")

	res := engine.ComputeLine(dec("2000"), nil, &rate)
	require.Len(t, res.Taxes, 1)
	assert.Equal(t, "legacy:5", res.Taxes[0].Rate.Key())
	assert.Equal(t, "Tax 5%", res.Taxes[0].Rate.Name)
	assert.True(t, res.Total.Equal(dec("100")))

	// configured rates win over the flat percentage
	vat := DescriptorFromRate(&entity.TaxRate{ID: uuid.New(), Rate: dec("19")})
	res = engine.ComputeLine(dec("100"), []TaxRateDescriptor{vat}, &rate)
	assert.True(t, res.Total.Equal(dec("19")))

	zero := dec("0")
	res = engine.ComputeLine(dec("100"), nil, &zero)
	assert.Empty(t, res.Taxes)
	assert.True(t, res.Total.IsZero())
}

func TestForTenantUsesTenantTaxLabel(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tenant, err := store.SeedTenant(ctx, "label-shop", uuid.New())
	require.NoError(t, err)
	rate := dec("19")

	engine := NewTaxEngine(labelledTenants{TenantRepository: store.Tenants(), label: "IVA"}, "Tax")
	scoped, err := engine.ForTenant(ctx, tenant.ID)
	require.NoError(t, err)
	res := scoped.ComputeLine(dec("100"), nil, &rate)
	require.Len(t, res.Taxes, 1)
	assert.Equal(t, "IVA 19%", res.Taxes[0].Rate.Name)
	assert.Equal(t, "legacy:19", res.Taxes[0].Rate.Key())

	// unknown tenants and engines without a directory keep the configured label
	scoped, err = engine.ForTenant(ctx, uuid.New())
	require.NoError(t, err)
	assert.Same(t, engine, scoped)

	bare := NewTaxEngine(nil, "VAT")
	scoped, err = bare.ForTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "VAT 19%", scoped.ComputeLine(dec("100"), nil, &rate).Taxes[0].Rate.Name)
}

func TestTaxSummaryAccumulatorSumsRoundedLines(t *testing.T) {
	engine := NewTaxEngine(nil, "Tax")
	vat := DescriptorFromRate(&entity.TaxRate{ID: uuid.New(), Name: "IVA 19%", Rate: dec("19")})
	acc := NewTaxSummaryAccumulator()

	// each line rounds 0.0057 to 0.01, taxing the 0.09 total at once would give 0.02
	for i := 0; i < 3; i++ {
		acc.Add(engine.ComputeLine(dec("0.03"), []TaxRateDescriptor{vat}, nil))
	}
	legacy := dec("5")
	acc.Add(engine.ComputeLine(dec("10"), nil, &legacy))
	acc.Add(engine.ComputeLine(dec("10"), nil, &legacy))

	sums := acc.Summaries()
	require.Len(t, sums, 2)
	assert.Equal(t, vat.Key(), sums[0].Rate.Key())
	assert.True(t, sums[0].Base.Equal(dec("0.09")))
	assert.True(t, sums[0].Amount.Equal(dec("0.03")))
	assert.Equal(t, "legacy:5", sums[1].Rate.Key())
	assert.True(t, sums[1].Amount.Equal(dec("1")))
	assert.True(t, acc.Total().Equal(dec("1.03")))
}
