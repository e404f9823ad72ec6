package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
)

// TenantRepository defines the interface for tenant data operations
type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error

	// GetByID retrieves a tenant by ID
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)

	// GetBySlug retrieves a tenant by slug (subdomain or X-Tenant header)
	GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error)

	AddMember(ctx context.Context, membership *entity.TenantMembership) error

	// IsMember checks if a user is a member of a tenant
	IsMember(ctx context.Context, tenantID, userID uuid.UUID) (bool, error)
}
