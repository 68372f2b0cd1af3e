package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier(t *testing.T) {
	v := NewJWTVerifier(JWTConfig{Secret: "test-secret", Issuer: "passiton"})
	userID := uuid.New()

	t.Run("round trip", func(t *testing.T) {
		token, err := v.IssueToken(userID, time.Hour)
		require.NoError(t, err)

		got, err := v.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := v.IssueToken(userID, -time.Minute)
		require.NoError(t, err)

		_, err = v.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTVerifier(JWTConfig{Secret: "other", Issuer: "passiton"})
		token, err := other.IssueToken(userID, time.Hour)
		require.NoError(t, err)

		_, err = v.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTVerifier(JWTConfig{Secret: "test-secret", Issuer: "elsewhere"})
		token, err := other.IssueToken(userID, time.Hour)
		require.NoError(t, err)

		_, err = v.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("non uuid subject", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Issuer:    "passiton",
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = v.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidSubject)
	})

	t.Run("rejects other algorithms", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Issuer:    "passiton",
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = v.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
