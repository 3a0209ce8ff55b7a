package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing"

func TestGenerateToken(t *testing.T) {
	for _, userID := range []int64{0, 1, 123, 9223372036854775807} {
		token, err := GenerateToken(userID, testSecret, 24)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := ParseToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
	}
}

func TestParseToken(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		token, _ := GenerateToken(456, testSecret, 24)

		claims, err := ParseToken(token, testSecret)

		require.NoError(t, err)
		assert.Equal(t, int64(456), claims.UserID)
		assert.True(t, claims.ExpiresAt.After(time.Now()))
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _ := GenerateToken(123, testSecret, 24)

		claims, err := ParseToken(token, "wrong-secret")

		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Nil(t, claims)
	})

	t.Run("malformed token", func(t *testing.T) {
		for _, raw := range []string{"", "not-a-jwt-at-all", "invalid.token.string"} {
			claims, err := ParseToken(raw, testSecret)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		claims := Claims{
			UserID: 123,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			},
		}
		tokenString, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))

		result, err := ParseToken(tokenString, testSecret)

		assert.ErrorIs(t, err, ErrExpiredToken)
		assert.Nil(t, result)
	})

	t.Run("none signing method", func(t *testing.T) {
		claims := Claims{
			UserID: 123,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		tokenString, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)

		result, err := ParseToken(tokenString, testSecret)

		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Nil(t, result)
	})
}
