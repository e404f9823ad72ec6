package database

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/config"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(parseLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", Classify(err))
	}

	if err := RegisterErrorClassifier(db); err != nil {
		return nil, err
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	log.Println("Successfully connected to PostgreSQL database")
	return db, nil
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		// User-related entities
		&entity.User{},
		&entity.Role{},
		&entity.Permission{},
		&entity.Tenant{},
		&entity.TenantMembership{},

		// Catalogue
		&entity.TaxRate{},
		&entity.Product{},
		&entity.ProductVariant{},
		&entity.RecipeComponent{},
		&entity.Warehouse{},
		&entity.StockLevel{},
		&entity.StockMovement{},
		&entity.PaymentMethod{},

		// Sales documents
		&entity.Customer{},
		&entity.Shift{},
		&entity.ShiftSummary{},
		&entity.CashMovement{},
		&entity.DocumentSequence{},
		&entity.Sale{},
		&entity.SaleLine{},
		&entity.SaleLineTax{},
		&entity.SaleTaxSummary{},
		&entity.Payment{},
		&entity.SaleReturn{},
		&entity.SaleReturnLine{},
		&entity.CreditNote{},

		// Accounting and delivery
		&entity.JournalEntry{},
		&entity.JournalLine{},
		&entity.IntegrationEvent{},

		// System entities
		&entity.IdempotencyKey{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// DefaultPermissions lists the capabilities seeded for a new installation
var DefaultPermissions = []string{
	entity.PermissionManageSales,
	entity.PermissionManageShifts,
	entity.PermissionManageCustomers,
	entity.PermissionProcessReturns,
	entity.PermissionApplyDiscount,
	entity.PermissionManageCatalog,
}

// DefaultRoles maps role names to the permissions they carry. admin gets every permission.
var DefaultRoles = map[string][]string{
	"supervisor": {
		entity.PermissionManageSales,
		entity.PermissionManageShifts,
		entity.PermissionManageCustomers,
		entity.PermissionProcessReturns,
		entity.PermissionApplyDiscount,
	},
	"cashier": {
		entity.PermissionManageSales,
		entity.PermissionManageShifts,
		entity.PermissionManageCustomers,
	},
}

// SeedDefaultData seeds roles, permissions, the admin user and the default tenant
func SeedDefaultData(db *gorm.DB) error {
	log.Println("Seeding default data...")

	// Create default permissions
	for _, name := range DefaultPermissions {
		var existing entity.Permission
		if err := db.Where("name = ?", name).First(&existing).Error; err != nil {
			if err := db.Create(&entity.Permission{Name: name, GuardName: "web"}).Error; err != nil {
				log.Printf("Warning: failed to create permission %s: %v", name, err)
			}
		}
	}

	// Reload permissions with IDs
	var allPermissions []entity.Permission
	if err := db.Find(&allPermissions).Error; err != nil {
		return fmt.Errorf("failed to load permissions: %w", err)
	}

	roles := map[string][]entity.Permission{"admin": allPermissions}
	for name, wanted := range DefaultRoles {
		var perms []entity.Permission
		for _, want := range wanted {
			for _, p := range allPermissions {
				if p.Name == want {
					perms = append(perms, p)
					break
				}
			}
		}
		roles[name] = perms
	}

	for name, perms := range roles {
		var role entity.Role
		if err := db.Where("name = ?", name).First(&role).Error; err != nil {
			role = entity.Role{Name: name, GuardName: "web", Permissions: perms}
			if err := db.Create(&role).Error; err != nil {
				log.Printf("Warning: failed to create %s role: %v", name, err)
			}
		}
	}

	// Create admin user if configured via environment variables
	adminEmail := viper.GetString("ADMIN_EMAIL")
	adminPassword := viper.GetString("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Println("Default data seeding completed (no admin configured)")
		return nil
	}

	var admin entity.User
	if err := db.Preload("Roles").Where("email = ?", adminEmail).First(&admin).Error; err != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		var adminRole entity.Role
		if err := db.Where("name = ?", "admin").First(&adminRole).Error; err != nil {
			return fmt.Errorf("admin role missing: %w", err)
		}

		firstName, lastName := SplitName(viper.GetString("ADMIN_NAME"))
		admin = entity.User{
			ID:        uuid.New(),
			FirstName: firstName,
			LastName:  lastName,
			Username:  adminEmail,
			Email:     adminEmail,
			Password:  string(hashedPassword),
			Active:    true,
			Roles:     []entity.Role{adminRole},
		}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		log.Printf("Admin user created: %s", adminEmail)
	}

	return seedDefaultTenant(db, &admin)
}

// SplitName breaks a display name into first and last name
func SplitName(name string) (string, string) {
	if name == "" {
		return "Store", "Admin"
	}
	first, last, _ := strings.Cut(name, " ")
	return first, last
}

// seedDefaultTenant creates the first store with a warehouse, the standard tenders and VAT
func seedDefaultTenant(db *gorm.DB, owner *entity.User) error {
	slug := viper.GetString("DEFAULT_TENANT_SLUG")
	if slug == "" {
		slug = "default"
	}

	var tenant entity.Tenant
	if err := db.Where("slug = ?", slug).First(&tenant).Error; err == nil {
		log.Printf("Default tenant already exists: %s", slug)
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		tenant = entity.Tenant{
			Name:     "Default Store",
			Slug:     slug,
			OwnerID:  owner.ID,
			Settings: entity.DefaultTenantSettings(),
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}
		if err := tx.Create(&entity.TenantMembership{TenantID: tenant.ID, UserID: owner.ID, Role: "owner"}).Error; err != nil {
			return fmt.Errorf("failed to add tenant owner: %w", err)
		}

		warehouse := entity.Warehouse{TenantID: tenant.ID, Code: "MAIN", Name: "Main store"}
		if err := tx.Create(&warehouse).Error; err != nil {
			return fmt.Errorf("failed to create warehouse: %w", err)
		}
		tenant.Settings.DefaultWarehouseID = &warehouse.ID
		if err := tx.Model(&tenant).Update("settings", tenant.Settings).Error; err != nil {
			return fmt.Errorf("failed to store tenant settings: %w", err)
		}

		methods := DefaultPaymentMethods(tenant.ID)
		if err := tx.Create(&methods).Error; err != nil {
			return fmt.Errorf("failed to create payment methods: %w", err)
		}

		vat := DefaultTaxRate(tenant.ID)
		if err := tx.Create(&vat).Error; err != nil {
			return fmt.Errorf("failed to create tax rate: %w", err)
		}

		log.Printf("Default tenant created: %s (warehouse %s)", slug, warehouse.ID)
		return nil
	})
}

// DefaultPaymentMethods returns the tenders every new store starts with
func DefaultPaymentMethods(tenantID uuid.UUID) []entity.PaymentMethod {
	return []entity.PaymentMethod{
		{TenantID: tenantID, Code: "CASH", Name: "Cash", Kind: enum.PaymentKindCash, Active: true},
		{TenantID: tenantID, Code: "CARD", Name: "Card", Kind: enum.PaymentKindCard, Active: true},
		{TenantID: tenantID, Code: "TRANSFER", Name: "Bank transfer", Kind: enum.PaymentKindTransfer, Active: true},
		{TenantID: tenantID, Code: "CREDIT", Name: "Store credit", Kind: enum.PaymentKindCredit, Active: true},
	}
}

// DefaultTaxRate returns the standard VAT rate
func DefaultTaxRate(tenantID uuid.UUID) entity.TaxRate {
	return entity.TaxRate{TenantID: tenantID, Name: "IVA 19%", Rate: decimal.NewFromInt(19), Kind: enum.TaxKindVAT, Active: true}
}
