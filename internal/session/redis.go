package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session state in Redis with native key expiry.
//
// Keys:
//
//	<prefix>:refresh:<hash>        -> user id
//	<prefix>:user:<id>:refresh     -> set of hashes
//	<prefix>:user:<id>:revoked_at  -> unix seconds
//	<prefix>:revoked:<jti>         -> "1"
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "greencity:session"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) refreshKey(hash string) string { return s.prefix + ":refresh:" + hash }
func (s *RedisStore) userSetKey(id uint64) string {
	return s.prefix + ":user:" + strconv.FormatUint(id, 10) + ":refresh"
}
func (s *RedisStore) userRevokedKey(id uint64) string {
	return s.prefix + ":user:" + strconv.FormatUint(id, 10) + ":revoked_at"
}
func (s *RedisStore) revokedKey(jti string) string { return s.prefix + ":revoked:" + jti }

func (s *RedisStore) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.refreshKey(tokenHash), userID, ttl)
	pipe.SAdd(ctx, s.userSetKey(userID), tokenHash)
	pipe.Expire(ctx, s.userSetKey(userID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	v, err := s.rdb.Get(ctx, s.refreshKey(tokenHash)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrTokenNotFound
	}
	return v, err
}

func (s *RedisStore) RevokeRefresh(ctx context.Context, tokenHash string) error {
	uid, err := s.ValidateRefresh(ctx, tokenHash)
	if errors.Is(err, ErrTokenNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.refreshKey(tokenHash))
	pipe.SRem(ctx, s.userSetKey(uid), tokenHash)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) RevokeAccess(ctx context.Context, jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 || jti == "" {
		return nil
	}
	return s.rdb.Set(ctx, s.revokedKey(jti), 1, ttl).Err()
}

func (s *RedisStore) RevokeAllForUser(ctx context.Context, userID uint64, ttl time.Duration) error {
	hashes, err := s.rdb.SMembers(ctx, s.userSetKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	pipe := s.rdb.TxPipeline()
	for _, h := range hashes {
		pipe.Del(ctx, s.refreshKey(h))
	}
	pipe.Del(ctx, s.userSetKey(userID))
	pipe.Set(ctx, s.userRevokedKey(userID), time.Now().Unix(), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) AccessRevoked(ctx context.Context, jti string, userID uint64, issuedAt time.Time) (bool, error) {
	pipe := s.rdb.Pipeline()
	denied := pipe.Exists(ctx, s.revokedKey(jti))
	since := pipe.Get(ctx, s.userRevokedKey(userID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	if denied.Val() > 0 {
		return true, nil
	}
	if ts, err := since.Int64(); err == nil && issuedAt.Unix() < ts {
		return true, nil
	}
	return false, nil
}
