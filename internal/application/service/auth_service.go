package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/utils"
)

// AuthService handles authentication-related operations
type AuthService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, jwtManager *utils.JWTManager) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// LoginInput represents the login input
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput represents the login output
type LoginOutput struct {
	User        *entity.User
	AccessToken string
}

// Login authenticates a user and returns an access token
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := s.authenticate(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.RoleNames(), user.GetPermissions())
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		User:        user,
		AccessToken: accessToken,
	}, nil
}

// authenticate checks credentials and returns the user with roles and permissions
func (s *AuthService) authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, apperror.ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, apperror.ErrInvalidCredentials
	}

	// Get user with roles
	return s.userRepo.GetWithRoles(ctx, user.ID)
}

// OverrideInput is a supervisor vouching for a cashier's restricted action
type OverrideInput struct {
	RequestedBy uuid.UUID
	Email       string
	Password    string
	Permission  string
}

// OverrideOutput is the signed grant handed back to the till
type OverrideOutput struct {
	Token        string    `json:"token"`
	SupervisorID uuid.UUID `json:"supervisor_id"`
	Permission   string    `json:"permission"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IssueOverride verifies a supervisor's credentials at the till and signs a
// short-lived token granting one permission
func (s *AuthService) IssueOverride(ctx context.Context, input *OverrideInput) (*OverrideOutput, error) {
	if input.Permission == "" {
		input.Permission = entity.PermissionApplyDiscount
	}

	supervisor, err := s.authenticate(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	if !supervisor.HasPermission(input.Permission) {
		return nil, apperror.NewForbiddenError(apperror.CodeForbidden, "Supervisor does not hold "+input.Permission)
	}

	token, expiresAt, err := s.jwtManager.GenerateOverrideToken(supervisor.ID, input.Permission)
	if err != nil {
		return nil, err
	}

	log.Printf("[auth] override %s issued by %s for %s", input.Permission, supervisor.ID, input.RequestedBy)
	return &OverrideOutput{
		Token:        token,
		SupervisorID: supervisor.ID,
		Permission:   input.Permission,
		ExpiresAt:    expiresAt,
	}, nil
}

// GetProfile returns the user with roles and permissions
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetWithRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}
