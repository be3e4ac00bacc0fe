package auth_test

import (
	"testing"
	"time"

	"github.com/adnan-tnd/flow-core/internal/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 24*time.Hour, 24*time.Hour)

	userID := uuid.New()
	email := "test@example.com"

	token, err := jwtService.GenerateToken(userID, email, "manager")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, email, claims.Email)
	assert.Equal(t, "manager", claims.Role)
	assert.Empty(t, claims.Purpose)
	assert.Equal(t, "flow-core", claims.Issuer)
}

func TestJWTService_ValidateToken(t *testing.T) {
	userID := uuid.New()

	t.Run("rejects expired token", func(t *testing.T) {
		jwtService := auth.NewJWTService("test-secret", time.Millisecond, time.Hour)

		token, err := jwtService.GenerateToken(userID, "a@example.com", "member")
		require.NoError(t, err)

		time.Sleep(1100 * time.Millisecond)

		_, err = jwtService.ValidateToken(token)
		assert.Equal(t, auth.ErrExpiredToken, err)
	})

	t.Run("rejects tampered token", func(t *testing.T) {
		jwtService := auth.NewJWTService("test-secret", time.Hour, time.Hour)

		token, err := jwtService.GenerateToken(userID, "a@example.com", "member")
		require.NoError(t, err)

		_, err = jwtService.ValidateToken(token + "tampered")
		assert.Equal(t, auth.ErrInvalidToken, err)
	})

	t.Run("rejects token signed with different secret", func(t *testing.T) {
		one := auth.NewJWTService("secret-1", time.Hour, time.Hour)
		two := auth.NewJWTService("secret-2", time.Hour, time.Hour)

		token, err := one.GenerateToken(userID, "a@example.com", "member")
		require.NoError(t, err)

		_, err = two.ValidateToken(token)
		assert.Equal(t, auth.ErrInvalidToken, err)
	})

	t.Run("rejects malformed and empty tokens", func(t *testing.T) {
		jwtService := auth.NewJWTService("test-secret", time.Hour, time.Hour)

		_, err := jwtService.ValidateToken("not-a-valid-jwt")
		assert.Equal(t, auth.ErrInvalidToken, err)

		_, err = jwtService.ValidateToken("")
		assert.Equal(t, auth.ErrInvalidToken, err)
	})

	t.Run("rejects reset token as session", func(t *testing.T) {
		jwtService := auth.NewJWTService("test-secret", time.Hour, time.Hour)

		token, err := jwtService.GenerateResetToken(userID, "a@example.com")
		require.NoError(t, err)

		_, err = jwtService.ValidateToken(token)
		assert.Equal(t, auth.ErrWrongPurpose, err)
	})
}

func TestJWTService_ResetToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", time.Hour, 24*time.Hour)
	userID := uuid.New()

	t.Run("round trip", func(t *testing.T) {
		token, err := jwtService.GenerateResetToken(userID, "a@example.com")
		require.NoError(t, err)

		claims, err := jwtService.ValidateResetToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, auth.PurposePasswordReset, claims.Purpose)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
	})

	t.Run("session token is not a reset token", func(t *testing.T) {
		token, err := jwtService.GenerateToken(userID, "a@example.com", "member")
		require.NoError(t, err)

		_, err = jwtService.ValidateResetToken(token)
		assert.Equal(t, auth.ErrWrongPurpose, err)
	})
}

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("s3cret!")
	require.NoError(t, err)

	assert.True(t, auth.CheckPassword("s3cret!", hash))
	assert.False(t, auth.CheckPassword("wrong", hash))
}
