// Package session keeps server-side token state: refresh tokens, revoked
// access tokens and per-user revocation marks. Access tokens themselves are
// stateless JWTs.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrTokenNotFound is returned for unknown or expired refresh tokens.
var ErrTokenNotFound = errors.New("refresh token not found")

// Store persists session state. Refresh tokens are addressed by the hash of
// the raw token only.
type Store interface {
	// StoreRefresh records a refresh token hash for userID until exp.
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owner of a live refresh token.
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	// RevokeRefresh forgets one refresh token. Unknown hashes are ignored.
	RevokeRefresh(ctx context.Context, tokenHash string) error
	// RevokeAccess denylists an access token id until its expiry.
	RevokeAccess(ctx context.Context, jti string, exp time.Time) error
	// RevokeAllForUser drops the user's refresh tokens and rejects access
	// tokens issued before now, for ttl (the access token lifetime).
	RevokeAllForUser(ctx context.Context, userID uint64, ttl time.Duration) error
	// AccessRevoked reports whether an access token may no longer be used.
	AccessRevoked(ctx context.Context, jti string, userID uint64, issuedAt time.Time) (bool, error)
}
