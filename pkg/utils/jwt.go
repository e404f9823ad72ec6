package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer = "investify-pos"
	// OverrideAudience scopes supervisor override tokens so they cannot be used as access tokens
	OverrideAudience = "discount-override"
)

// JWTClaims represents the claims in an access token
type JWTClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	jwt.RegisteredClaims
}

// OverrideClaims is a short-lived grant of one permission signed for a supervisor
type OverrideClaims struct {
	SupervisorID uuid.UUID `json:"supervisor_id"`
	Permission   string    `json:"permission"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token generation and validation
type JWTManager struct {
	secretKey         []byte
	accessTokenExpiry time.Duration
	overrideExpiry    time.Duration
	now               func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, accessExpiry, overrideExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:         []byte(secret),
		accessTokenExpiry: accessExpiry,
		overrideExpiry:    overrideExpiry,
		now:               time.Now,
	}
}

func (m *JWTManager) registered(subject string, ttl time.Duration, audience ...string) jwt.RegisteredClaims {
	now := m.now()
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
		Subject:   subject,
		ID:        uuid.NewString(),
	}
	if len(audience) > 0 {
		claims.Audience = jwt.ClaimStrings(audience)
	}
	return claims
}

// GenerateAccessToken generates a new access token
func (m *JWTManager) GenerateAccessToken(userID uuid.UUID, email string, roles, permissions []string) (string, error) {
	claims := &JWTClaims{
		UserID:           userID,
		Email:            email,
		Roles:            roles,
		Permissions:      permissions,
		RegisteredClaims: m.registered(userID.String(), m.accessTokenExpiry),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// GenerateOverrideToken signs a token granting permission on behalf of supervisorID
func (m *JWTManager) GenerateOverrideToken(supervisorID uuid.UUID, permission string) (string, time.Time, error) {
	claims := &OverrideClaims{
		SupervisorID:     supervisorID,
		Permission:       permission,
		RegisteredClaims: m.registered(supervisorID.String(), m.overrideExpiry, OverrideAudience),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return m.secretKey, nil
}

// ValidateAccessToken validates an access token and returns the claims
func (m *JWTManager) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, m.keyFunc,
		jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	// override tokens carry an audience, access tokens never do
	if len(claims.Audience) > 0 {
		return nil, errors.New("token is not an access token")
	}

	return claims, nil
}

// VerifyOverride validates an override token and checks it grants permission
func (m *JWTManager) VerifyOverride(tokenString, permission string) (*OverrideClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OverrideClaims{}, m.keyFunc,
		jwt.WithIssuer(tokenIssuer), jwt.WithAudience(OverrideAudience), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*OverrideClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid override token")
	}
	if claims.Permission != permission {
		return nil, errors.New("override token does not grant " + permission)
	}
	return claims, nil
}
