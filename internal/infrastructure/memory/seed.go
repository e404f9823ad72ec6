package memory

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/infrastructure/database"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// SeedDefaults loads the roles, the configured admin and a default store,
// mirroring what the postgres seeder writes.
func (s *Store) SeedDefaults(ctx context.Context) error {
	roles := map[string]entity.Role{"admin": s.AddRole("admin", database.DefaultPermissions...)}
	for name, perms := range database.DefaultRoles {
		roles[name] = s.AddRole(name, perms...)
	}

	adminEmail := viper.GetString("ADMIN_EMAIL")
	adminPassword := viper.GetString("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Println("Default data seeding completed (no admin configured)")
		return nil
	}

	users := s.Users()
	admin, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		return err
	}
	if admin == nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		firstName, lastName := database.SplitName(viper.GetString("ADMIN_NAME"))
		admin = &entity.User{
			FirstName: firstName,
			LastName:  lastName,
			Username:  adminEmail,
			Email:     adminEmail,
			Password:  string(hashed),
			Active:    true,
			Roles:     []entity.Role{roles["admin"]},
		}
		if err := users.Create(ctx, admin); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		log.Printf("Admin user created: %s", adminEmail)
	}

	slug := viper.GetString("DEFAULT_TENANT_SLUG")
	if slug == "" {
		slug = "default"
	}
	_, err = s.SeedTenant(ctx, slug, admin.ID)
	return err
}

// SeedTenant creates a store owned by ownerID with a main warehouse, the
// standard tenders and VAT. An existing slug is returned untouched.
func (s *Store) SeedTenant(ctx context.Context, slug string, ownerID uuid.UUID) (*entity.Tenant, error) {
	tenants := s.Tenants()
	if existing, err := tenants.GetBySlug(ctx, slug); err != nil || existing != nil {
		return existing, err
	}

	tenant := &entity.Tenant{Name: "Default Store", Slug: slug, OwnerID: ownerID, Settings: entity.DefaultTenantSettings()}
	err := s.WithinTransaction(ctx, func(ctx context.Context, repos *domainRepo.Repositories) error {
		newID(&tenant.ID)
		ctx = infraRepo.WithTenant(ctx, tenant.ID)

		warehouse := &entity.Warehouse{TenantID: tenant.ID, Code: "MAIN", Name: "Main store"}
		if err := repos.Stock.CreateWarehouse(ctx, warehouse); err != nil {
			return fmt.Errorf("failed to create warehouse: %w", err)
		}
		tenant.Settings.DefaultWarehouseID = &warehouse.ID

		for _, method := range database.DefaultPaymentMethods(tenant.ID) {
			if err := repos.PaymentMethods.Create(ctx, &method); err != nil {
				return fmt.Errorf("failed to create payment methods: %w", err)
			}
		}
		vat := database.DefaultTaxRate(tenant.ID)
		if err := repos.TaxRates.Create(ctx, &vat); err != nil {
			return fmt.Errorf("failed to create tax rate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := tenants.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	if err := tenants.AddMember(ctx, &entity.TenantMembership{TenantID: tenant.ID, UserID: ownerID, Role: "owner"}); err != nil {
		return nil, fmt.Errorf("failed to add tenant owner: %w", err)
	}
	log.Printf("Default tenant created: %s (warehouse %s)", slug, *tenant.Settings.DefaultWarehouseID)
	return tenant, nil
}
