package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())

	cfg := Load()

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "INV-", cfg.Sales.InvoicePrefix)
	assert.Equal(t, 6, cfg.Sales.NumberPadding)
	assert.Equal(t, "Tax", cfg.Sales.TaxLabel)
	assert.False(t, cfg.Sales.BlockOversell())
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 2*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 5*time.Minute, cfg.JWT.OverrideExpiry)
	assert.Equal(t, "1105", cfg.Accounting.Cash)
}

func TestLoadReadsEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())
	t.Setenv("STOCK_OVERSELL_POLICY", "BLOCK")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("OUTBOX_MAX_ATTEMPTS", "3")

	cfg := Load()

	assert.True(t, cfg.Sales.BlockOversell())
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Outbox.MaxAttempts)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", Name: "pos", User: "u", Password: "p", SSLMode: "disable", Timezone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=pos port=5432 sslmode=disable TimeZone=UTC", c.DSN())
}
