package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		mgr := NewJWTManager("test-secret")

		token, err := mgr.GenerateToken(42, "ada@example.com", RoleAdmin, time.Hour)
		require.NoError(t, err)

		claims, err := mgr.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "ada@example.com", claims.Email)
		assert.Equal(t, RoleAdmin, claims.Role)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := NewJWTManager("secret-a").GenerateToken(1, "a@example.com", RoleCustomer, time.Hour)
		require.NoError(t, err)

		_, err = NewJWTManager("secret-b").ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		mgr := NewJWTManager("test-secret")
		token, err := mgr.GenerateToken(1, "a@example.com", RoleCustomer, -time.Minute)
		require.NoError(t, err)

		_, err = mgr.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := NewJWTManager("test-secret").ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
