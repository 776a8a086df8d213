package services_test

import (
	"testing"
	"time"

	"reelsync/internal/core/domain"
	"reelsync/internal/core/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestValidateToken_Valid(t *testing.T) {
	svc := services.NewAuthService(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":      "viewer-1",
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	claims, err := svc.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, domain.ViewerID("viewer-1"), claims.ViewerID)
	assert.Equal(t, "alice", claims.UserName)
	assert.Nil(t, claims.PhotoKey)
}

func TestValidateToken_CarriesPhotoKey(t *testing.T) {
	svc := services.NewAuthService(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":       "viewer-1",
		"username":  "alice",
		"photo_key": "avatars/alice.png",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	claims, err := svc.ValidateToken(token)

	require.NoError(t, err)
	require.NotNil(t, claims.PhotoKey)
	assert.Equal(t, "avatars/alice.png", *claims.PhotoKey)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := services.NewAuthService(testSecret)
	token := signToken(t, "other-secret", jwt.MapClaims{
		"sub": "viewer-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := svc.ValidateToken(token)

	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := services.NewAuthService(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "viewer-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := svc.ValidateToken(token)

	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestValidateToken_MissingSubject(t *testing.T) {
	svc := services.NewAuthService(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	_, err := svc.ValidateToken(token)

	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := services.NewAuthService(testSecret)

	_, err := svc.ValidateToken("not-a-token")

	assert.ErrorIs(t, err, services.ErrInvalidToken)
}
