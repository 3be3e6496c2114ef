package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-ops-api/internal/model"
)

func testConfig() Config {
	return Config{
		Secret:        "access-secret-for-tests-0123456789",
		RefreshSecret: "refresh-secret-for-tests-0123456789",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	}
}

func testUser() *model.User {
	return &model.User{
		Base:     model.Base{ID: uuid.New()},
		ClinicID: uuid.New(),
		Email:    "doctor@clinic.test",
		Role:     model.RoleDoctor,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(testConfig())
	user := testUser()

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.ClinicID, claims.ClinicID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Role, claims.Role)
}

func TestRefreshTokenNotValidAsAccessToken(t *testing.T) {
	svc := NewJWTService(testConfig())

	refresh, err := svc.GenerateRefreshToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Expiry = -time.Minute
	svc := NewJWTService(cfg)

	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenSignedWithDifferentSecretRejected(t *testing.T) {
	svc := NewJWTService(testConfig())

	other := testConfig()
	other.Secret = "a-completely-different-secret-value"
	token, err := NewJWTService(other).GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := NewJWTService(testConfig())

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
