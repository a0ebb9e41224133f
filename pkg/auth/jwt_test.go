package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/intake-api/internal/model"
)

func testService(expiry time.Duration) JWTService {
	return NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        expiry,
		RefreshExpiry: 24 * time.Hour,
	})
}

func testUser() *model.User {
	clinicID := uuid.New()
	return &model.User{
		Base:     model.Base{ID: uuid.New()},
		ClinicID: &clinicID,
		Email:    "staff@clinic.example",
		Role:     model.RoleStaff,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := testService(time.Hour)
	user := testUser()

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleStaff, claims.Role)
	assert.Equal(t, user.Email, claims.Email)
	require.NotNil(t, claims.ClinicID)
	assert.Equal(t, *user.ClinicID, *claims.ClinicID)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := testService(-time.Minute)

	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokensNotInterchangeable(t *testing.T) {
	svc := testService(time.Hour)
	user := testUser()

	refresh, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(refresh)
	assert.Error(t, err)

	access, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	svc := testService(time.Hour)

	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.ValidateToken(tampered)
	assert.Error(t, err)
}
