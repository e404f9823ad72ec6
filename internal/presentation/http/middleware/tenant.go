package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	infraRepo "github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
)

// TenantHeader names the store when the API is not reached through a subdomain
const TenantHeader = "X-Tenant"

// ExtractTenantFromHost extracts tenant slug from subdomain
// e.g., "acme.investify.com" -> "acme"
func ExtractTenantFromHost(host string) (string, error) {
	// Remove port if present
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return "", errors.New("invalid subdomain")
	}
	return parts[0], nil
}

func tenantSlug(c *gin.Context) string {
	if slug := strings.TrimSpace(c.GetHeader(TenantHeader)); slug != "" {
		return slug
	}
	slug, err := ExtractTenantFromHost(c.Request.Host)
	if err != nil {
		return ""
	}
	return slug
}

// TenantMiddleware resolves the tenant from the X-Tenant header or the subdomain,
// checks the authenticated user belongs to it and scopes the request context.
// Requests naming no tenant are rejected.
func TenantMiddleware(tenantRepo repository.TenantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := tenantSlug(c)
		if slug == "" {
			response.BadRequest(c, "Tenant context required")
			c.Abort()
			return
		}

		tenant, err := tenantRepo.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if tenant == nil {
			response.NotFound(c, "Tenant not found")
			c.Abort()
			return
		}

		if userID, ok := c.Get("user_id"); ok {
			if id, ok := userID.(uuid.UUID); ok && id != uuid.Nil {
				isMember, err := tenantRepo.IsMember(c.Request.Context(), tenant.ID, id)
				if err != nil {
					response.Error(c, err)
					c.Abort()
					return
				}
				if !isMember {
					response.Forbidden(c, "Access denied to this tenant")
					c.Abort()
					return
				}
			}
		}

		c.Set("tenant_id", tenant.ID)
		c.Set("tenant", tenant)

		// Services and repositories read the tenant from the request context
		ctx := infraRepo.WithTenant(c.Request.Context(), tenant.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetTenantID retrieves the tenant ID from gin context
func GetTenantID(c *gin.Context) uuid.UUID {
	tenantID, exists := c.Get("tenant_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := tenantID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
