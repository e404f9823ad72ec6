package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Store      StoreConfig
	Database   DatabaseConfig
	Retry      RetryConfig
	JWT        JWTConfig
	Sales      SalesConfig
	Outbox     OutboxConfig
	Accounting AccountingConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

// StoreConfig selects the persistence backend: "postgres" or "memory"
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	Timezone     string
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     string
}

// RetryConfig is the backoff applied to reads that hit connection exhaustion
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

type JWTConfig struct {
	Secret         string
	ExpiryHours    time.Duration
	OverrideExpiry time.Duration
}

// Oversell policies
const (
	OversellAllow = "allow"
	OversellBlock = "block"
)

type SalesConfig struct {
	InvoicePrefix    string
	ReturnPrefix     string
	CreditNotePrefix string
	NumberPadding    int
	OversellPolicy   string
	// TaxLabel names flat-percentage rates when the tenant has no label of its own
	TaxLabel         string
}

// BlockOversell reports whether a sale must fail when stock would go negative
func (c SalesConfig) BlockOversell() bool {
	return strings.EqualFold(c.OversellPolicy, OversellBlock)
}

type OutboxConfig struct {
	NodeID       int64
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
}

// AccountingConfig maps postings to ledger account codes
type AccountingConfig struct {
	Cash         string
	Bank         string
	Receivable   string
	Revenue      string
	TaxPayable   string
	CostOfSales  string
	Inventory    string
	SalesReturns string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	setDefaults()

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Store: StoreConfig{
			Driver: viper.GetString("STORE_DRIVER"),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			Name:         viper.GetString("DB_NAME"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			SSLMode:      viper.GetString("DB_SSL_MODE"),
			Timezone:     viper.GetString("DB_TIMEZONE"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			LogLevel:     viper.GetString("DB_LOG_LEVEL"),
		},
		Retry: RetryConfig{
			MaxAttempts: viper.GetInt("DB_RETRY_MAX_ATTEMPTS"),
			BaseDelay:   time.Duration(viper.GetInt("DB_RETRY_BASE_DELAY_MS")) * time.Millisecond,
			MaxDelay:    time.Duration(viper.GetInt("DB_RETRY_MAX_DELAY_MS")) * time.Millisecond,
		},
		JWT: JWTConfig{
			Secret:         viper.GetString("JWT_SECRET"),
			ExpiryHours:    time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			OverrideExpiry: time.Duration(viper.GetInt("JWT_OVERRIDE_TTL_MINUTES")) * time.Minute,
		},
		Sales: SalesConfig{
			InvoicePrefix:    viper.GetString("SALE_INVOICE_PREFIX"),
			ReturnPrefix:     viper.GetString("SALE_RETURN_PREFIX"),
			CreditNotePrefix: viper.GetString("SALE_CREDIT_NOTE_PREFIX"),
			NumberPadding:    viper.GetInt("SALE_NUMBER_PADDING"),
			OversellPolicy:   viper.GetString("STOCK_OVERSELL_POLICY"),
			TaxLabel:         viper.GetString("SALE_TAX_LABEL"),
		},
		Outbox: OutboxConfig{
			NodeID:       viper.GetInt64("OUTBOX_NODE_ID"),
			PollInterval: time.Duration(viper.GetInt("OUTBOX_POLL_INTERVAL_MS")) * time.Millisecond,
			BatchSize:    viper.GetInt("OUTBOX_BATCH_SIZE"),
			MaxAttempts:  viper.GetInt("OUTBOX_MAX_ATTEMPTS"),
			BaseDelay:    time.Duration(viper.GetInt("OUTBOX_BASE_DELAY_MS")) * time.Millisecond,
			MaxDelay:     time.Duration(viper.GetInt("OUTBOX_MAX_DELAY_MS")) * time.Millisecond,
		},
		Accounting: AccountingConfig{
			Cash:         viper.GetString("ACCOUNT_CASH"),
			Bank:         viper.GetString("ACCOUNT_BANK"),
			Receivable:   viper.GetString("ACCOUNT_RECEIVABLE"),
			Revenue:      viper.GetString("ACCOUNT_REVENUE"),
			TaxPayable:   viper.GetString("ACCOUNT_TAX_PAYABLE"),
			CostOfSales:  viper.GetString("ACCOUNT_COGS"),
			Inventory:    viper.GetString("ACCOUNT_INVENTORY"),
			SalesReturns: viper.GetString("ACCOUNT_SALES_RETURNS"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
	}
}

func setDefaults() {
	viper.SetDefault("APP_NAME", "investify-pos")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("STORE_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "investify_pos")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "America/Bogota")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_LOG_LEVEL", "warn")
	viper.SetDefault("DB_RETRY_MAX_ATTEMPTS", 5)
	viper.SetDefault("DB_RETRY_BASE_DELAY_MS", 100)
	viper.SetDefault("DB_RETRY_MAX_DELAY_MS", 2000)
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 12)
	viper.SetDefault("JWT_OVERRIDE_TTL_MINUTES", 5)
	viper.SetDefault("SALE_INVOICE_PREFIX", "INV-")
	viper.SetDefault("SALE_RETURN_PREFIX", "RET-")
	viper.SetDefault("SALE_CREDIT_NOTE_PREFIX", "NC-")
	viper.SetDefault("SALE_NUMBER_PADDING", 6)
	viper.SetDefault("SALE_TAX_LABEL", "Tax")
	viper.SetDefault("STOCK_OVERSELL_POLICY", OversellAllow)
	viper.SetDefault("OUTBOX_NODE_ID", 1)
	viper.SetDefault("OUTBOX_POLL_INTERVAL_MS", 2000)
	viper.SetDefault("OUTBOX_BATCH_SIZE", 20)
	viper.SetDefault("OUTBOX_MAX_ATTEMPTS", 8)
	viper.SetDefault("OUTBOX_BASE_DELAY_MS", 1000)
	viper.SetDefault("OUTBOX_MAX_DELAY_MS", 300000)
	viper.SetDefault("ACCOUNT_CASH", "1105")
	viper.SetDefault("ACCOUNT_BANK", "1110")
	viper.SetDefault("ACCOUNT_RECEIVABLE", "1305")
	viper.SetDefault("ACCOUNT_REVENUE", "4135")
	viper.SetDefault("ACCOUNT_TAX_PAYABLE", "2408")
	viper.SetDefault("ACCOUNT_COGS", "6135")
	viper.SetDefault("ACCOUNT_INVENTORY", "1435")
	viper.SetDefault("ACCOUNT_SALES_RETURNS", "4175")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
