package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by an access token. Besides the subject and role the token
// carries the username and city so handlers can scope requests without a
// users lookup.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	City     string `json:"city,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *Claims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// AccessToken is a signed JWT with its expiry and id (jti), which logout
// uses for revocation.
type AccessToken struct {
	Token string
	ID    string
	Exp   time.Time
}

// RefreshToken is returned raw to the client; only its SHA-256 hash is
// stored server side.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// Subject is the identity an access token is issued for.
type Subject struct {
	UserID   uint64
	Username string
	Role     string
	City     string
}

// NewAccessToken builds and signs an HS256 JWT.
func NewAccessToken(secret string, s Subject, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	jti := uuid.NewString()
	claims := Claims{
		Username: s.Username,
		Role:     s.Role,
		City:     s.City,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(s.UserID, 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ID: jti, Exp: exp}, nil
}

// ParseAccessToken verifies signature, algorithm and expiry.
func ParseAccessToken(secret, raw string) (*Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tok.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}

// NewRefreshToken returns a random token valid for ttlDays.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the hex SHA-256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
