package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenzaschool/backend/internal/models"
)

func TestNewTokenGenerator(t *testing.T) {
	tg := NewTokenGenerator("test-secret-key", 1*time.Hour, 7*24*time.Hour)

	assert.NotNil(t, tg)
	assert.Equal(t, "test-secret-key", tg.secret)
	assert.Equal(t, 1*time.Hour, tg.accessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, tg.refreshTokenExpiry)
}

func TestTokenGenerator_GenerateAccessToken(t *testing.T) {
	tg := NewTokenGenerator("b8a3c2267dc85f855dea9b46b452bf20", time.Hour, 7*24*time.Hour)

	t.Run("round trip keeps userID and role", func(t *testing.T) {
		token, err := tg.GenerateAccessToken(42, int(models.RoleStudent))
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		userID, role, err := tg.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, 42, userID)
		assert.Equal(t, int(models.RoleStudent), role)
	})

	t.Run("teacher role round trip", func(t *testing.T) {
		token, err := tg.GenerateAccessToken(7, int(models.RoleTeacher))
		require.NoError(t, err)

		userID, role, err := tg.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, 7, userID)
		assert.Equal(t, int(models.RoleTeacher), role)
	})

	t.Run("token has three JWT segments", func(t *testing.T) {
		token, err := tg.GenerateAccessToken(1, 1)
		require.NoError(t, err)
		assert.Len(t, strings.Split(token, "."), 3)
	})
}

func TestTokenGenerator_ValidateAccessToken(t *testing.T) {
	tg := NewTokenGenerator("b8a3c2267dc85f855dea9b46b452bf20", time.Hour, 7*24*time.Hour)

	t.Run("rejects a refresh token", func(t *testing.T) {
		refresh, err := tg.GenerateRefreshToken()
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(refresh)
		assert.Error(t, err)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		other := NewTokenGenerator("completely-different-secret", time.Hour, 7*24*time.Hour)
		token, err := other.GenerateAccessToken(42, 1)
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		expired := NewTokenGenerator(tg.secret, -time.Minute, 7*24*time.Hour)
		token, err := expired.GenerateAccessToken(42, 1)
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, _, err := tg.ValidateAccessToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("rejects the none signing algorithm", func(t *testing.T) {
		claims := jwt.MapClaims{
			"user_id": float64(42),
			"role":    float64(1),
			"type":    "access",
			"exp":     time.Now().Add(time.Hour).Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(tokenString)
		assert.Error(t, err)
	})

	t.Run("rejects a token without identity claims", func(t *testing.T) {
		claims := jwt.MapClaims{
			"type": "access",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString([]byte(tg.secret))
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(tokenString)
		assert.Error(t, err)
	})
}
