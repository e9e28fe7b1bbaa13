package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", Subject{UserID: 42, Username: "admin", Role: "admin", City: "Барнаул"}, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.ID)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "Барнаул", claims.City)
	assert.Equal(t, tok.ID, claims.ID)
}

func TestParseAccessTokenRejects(t *testing.T) {
	t.Run("WrongSecret", func(t *testing.T) {
		tok, err := NewAccessToken("a", Subject{UserID: 1, Role: "user"}, 5)
		require.NoError(t, err)
		_, err = ParseAccessToken("b", tok.Token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		tok, err := NewAccessToken("a", Subject{UserID: 1, Role: "user"}, -1)
		require.NoError(t, err)
		_, err = ParseAccessToken("a", tok.Token)
		assert.Error(t, err)
	})

	t.Run("NoneAlgorithm", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "1", "role": "creator", "exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = ParseAccessToken("a", raw)
		assert.Error(t, err)
	})
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(1)
	require.NoError(t, err)
	b, err := NewRefreshToken(1)
	require.NoError(t, err)
	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("user123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "user123"))
	assert.False(t, VerifyPassword(hash, "user124"))
}
