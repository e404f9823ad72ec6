package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
)

type membershipKey struct {
	tenantID uuid.UUID
	userID   uuid.UUID
}

type idempotencyKey struct {
	key    string
	userID uuid.UUID
}

// directory holds tenants, operators and request keys. Sales transactions read
// it while they run, so it is guarded by its own lock and never rolled back.
type directory struct {
	mu          sync.RWMutex
	tenants     map[uuid.UUID]entity.Tenant
	members     map[membershipKey]entity.TenantMembership
	users       map[uuid.UUID]entity.User
	roles       map[uint]entity.Role
	userRoles   map[uuid.UUID][]uint
	idempotency map[idempotencyKey]entity.IdempotencyKey
}

func newDirectory() *directory {
	return &directory{
		tenants:     make(map[uuid.UUID]entity.Tenant),
		members:     make(map[membershipKey]entity.TenantMembership),
		users:       make(map[uuid.UUID]entity.User),
		roles:       make(map[uint]entity.Role),
		userRoles:   make(map[uuid.UUID][]uint),
		idempotency: make(map[idempotencyKey]entity.IdempotencyKey),
	}
}

// AddRole registers a role with its permissions and returns the stored copy
func (s *Store) AddRole(name string, permissions ...string) entity.Role {
	dir := s.dir
	dir.mu.Lock()
	defer dir.mu.Unlock()

	for _, role := range dir.roles {
		if role.Name == name {
			return role
		}
	}

	id := uint(len(dir.roles) + 1)
	role := entity.Role{ID: id, Name: name, GuardName: "web", CreatedAt: s.now(), UpdatedAt: s.now()}
	for i, p := range permissions {
		role.Permissions = append(role.Permissions, entity.Permission{ID: uint(int(id)*100 + i + 1), Name: p, GuardName: "web"})
	}
	dir.roles[id] = role
	return role
}

type tenantRepository struct{ dir *directory }

// Tenants returns the tenant store
func (s *Store) Tenants() domainRepo.TenantRepository {
	return &tenantRepository{dir: s.dir}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *entity.Tenant) error {
	r.dir.mu.Lock()
	defer r.dir.mu.Unlock()

	for _, t := range r.dir.tenants {
		if t.Slug == tenant.Slug {
			return duplicate("tenant slug %s", tenant.Slug)
		}
	}
	newID(&tenant.ID)
	tenant.CreatedAt, tenant.UpdatedAt = time.Now(), time.Now()
	stored := *tenant
	stored.Members = nil
	r.dir.tenants[tenant.ID] = stored
	return nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	r.dir.mu.RLock()
	defer r.dir.mu.RUnlock()

	t, ok := r.dir.tenants[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *tenantRepository) GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error) {
	r.dir.mu.RLock()
	defer r.dir.mu.RUnlock()

	for _, t := range r.dir.tenants {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *tenantRepository) AddMember(ctx context.Context, membership *entity.TenantMembership) error {
	r.dir.mu.Lock()
	defer r.dir.mu.Unlock()

	key := membershipKey{tenantID: membership.TenantID, userID: membership.UserID}
	if _, ok := r.dir.members[key]; ok {
		return duplicate("membership of %s in %s", membership.UserID, membership.TenantID)
	}
	membership.CreatedAt = time.Now()
	r.dir.members[key] = *membership
	return nil
}

func (r *tenantRepository) IsMember(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	r.dir.mu.RLock()
	defer r.dir.mu.RUnlock()

	_, ok := r.dir.members[membershipKey{tenantID: tenantID, userID: userID}]
	return ok, nil
}

type userRepository struct{ dir *directory }

// Users returns the operator store
func (s *Store) Users() domainRepo.UserRepository {
	return &userRepository{dir: s.dir}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	r.dir.mu.Lock()
	defer r.dir.mu.Unlock()

	for _, u := range r.dir.users {
		if u.Email == user.Email {
			return duplicate("user email %s", user.Email)
		}
	}
	newID(&user.ID)
	user.CreatedAt, user.UpdatedAt = time.Now(), time.Now()
	for _, role := range user.Roles {
		r.dir.userRoles[user.ID] = append(r.dir.userRoles[user.ID], role.ID)
	}
	stored := *user
	stored.Roles = nil
	r.dir.users[user.ID] = stored
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.dir.mu.RLock()
	defer r.dir.mu.RUnlock()

	u, ok := r.dir.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.dir.mu.RLock()
	defer r.dir.mu.RUnlock()

	for _, u := range r.dir.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepository) GetWithRoles(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.dir.mu.RLock()
	defer r.dir.mu.RUnlock()

	u, ok := r.dir.users[id]
	if !ok {
		return nil, nil
	}
	for _, roleID := range r.dir.userRoles[id] {
		if role, ok := r.dir.roles[roleID]; ok {
			role.Permissions = slices.Clone(role.Permissions)
			u.Roles = append(u.Roles, role)
		}
	}
	return &u, nil
}

func (r *userRepository) AssignRole(ctx context.Context, userID uuid.UUID, roleID uint) error {
	r.dir.mu.Lock()
	defer r.dir.mu.Unlock()

	if !slices.Contains(r.dir.userRoles[userID], roleID) {
		r.dir.userRoles[userID] = append(r.dir.userRoles[userID], roleID)
	}
	return nil
}

type permissionChecker struct{ dir *directory }

// Permissions answers capability checks from the stored roles
func (s *Store) Permissions() domainRepo.PermissionChecker {
	return &permissionChecker{dir: s.dir}
}

func (c *permissionChecker) HasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	c.dir.mu.RLock()
	defer c.dir.mu.RUnlock()

	for _, roleID := range c.dir.userRoles[userID] {
		for _, p := range c.dir.roles[roleID].Permissions {
			if p.Name == permission {
				return true, nil
			}
		}
	}
	return false, nil
}

type idempotencyRepository struct{ dir *directory }

// Idempotency returns the replay key store
func (s *Store) Idempotency() domainRepo.IdempotencyRepository {
	return &idempotencyRepository{dir: s.dir}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	r.dir.mu.RLock()
	defer r.dir.mu.RUnlock()

	ikey, ok := r.dir.idempotency[idempotencyKey{key: key, userID: userID}]
	if !ok {
		return nil, nil
	}
	return &ikey, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	r.dir.mu.Lock()
	defer r.dir.mu.Unlock()

	k := idempotencyKey{key: ikey.Key, userID: ikey.UserID}
	if _, ok := r.dir.idempotency[k]; ok {
		return duplicate("idempotency key %s", ikey.Key)
	}
	newID(&ikey.ID)
	ikey.CreatedAt = time.Now()
	r.dir.idempotency[k] = *ikey
	return nil
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.dir.mu.Lock()
	defer r.dir.mu.Unlock()

	var n int64
	for k, ikey := range r.dir.idempotency {
		if ikey.ExpiresAt.Before(now) {
			delete(r.dir.idempotency, k)
			n++
		}
	}
	return n, nil
}
