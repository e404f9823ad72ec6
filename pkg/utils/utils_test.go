package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "INV-000042", FormatDocumentNumber("INV-", 42, 6))
	assert.Equal(t, "RET-1234567", FormatDocumentNumber("RET-", 1234567, 6))
	assert.Equal(t, "7", FormatDocumentNumber("", 7, 0))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestOverrideTokenGrantsOnlyNamedPermission(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, 5*time.Minute)
	supervisor := uuid.New()

	token, expires, err := m.GenerateOverrideToken(supervisor, "apply-discount")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expires, 5*time.Second)

	claims, err := m.VerifyOverride(token, "apply-discount")
	require.NoError(t, err)
	assert.Equal(t, supervisor, claims.SupervisorID)

	_, err = m.VerifyOverride(token, "void-sale")
	assert.Error(t, err)
}

func TestOverrideTokenIsNotAnAccessToken(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, 5*time.Minute)
	token, _, err := m.GenerateOverrideToken(uuid.New(), "apply-discount")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestAccessTokenIsNotAnOverride(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, 5*time.Minute)
	token, err := m.GenerateAccessToken(uuid.New(), "cashier@example.com", []string{"cashier"}, []string{"apply-discount"})
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "cashier@example.com", claims.Email)

	_, err = m.VerifyOverride(token, "apply-discount")
	assert.Error(t, err)
}

func TestExpiredOverrideIsRejected(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, time.Minute)
	issued := time.Now().Add(-10 * time.Minute)
	m.now = func() time.Time { return issued }
	token, _, err := m.GenerateOverrideToken(uuid.New(), "apply-discount")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyOverride(token, "apply-discount")
	assert.Error(t, err)
}
