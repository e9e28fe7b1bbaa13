package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the single-process fallback used when Redis is not
// reachable. State is lost on restart, which logs everybody out.
type MemoryStore struct {
	mu       sync.Mutex
	now      func() time.Time
	refresh  map[string]memRefresh
	revoked  map[string]time.Time // jti -> expiry
	userMark map[uint64]memMark
}

type memRefresh struct {
	userID uint64
	exp    time.Time
}

type memMark struct {
	at  time.Time
	exp time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      time.Now,
		refresh:  map[string]memRefresh{},
		revoked:  map[string]time.Time{},
		userMark: map[uint64]memMark{},
	}
}

func (s *MemoryStore) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gc()
	s.refresh[tokenHash] = memRefresh{userID: userID, exp: exp}
	return nil
}

func (s *MemoryStore) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.refresh[tokenHash]
	if !ok || !s.now().Before(r.exp) {
		return 0, ErrTokenNotFound
	}
	return r.userID, nil
}

func (s *MemoryStore) RevokeRefresh(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, tokenHash)
	return nil
}

func (s *MemoryStore) RevokeAccess(_ context.Context, jti string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if jti != "" && s.now().Before(exp) {
		s.revoked[jti] = exp
	}
	return nil
}

func (s *MemoryStore) RevokeAllForUser(_ context.Context, userID uint64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, r := range s.refresh {
		if r.userID == userID {
			delete(s.refresh, h)
		}
	}
	now := s.now()
	s.userMark[userID] = memMark{at: now.Truncate(time.Second), exp: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) AccessRevoked(_ context.Context, jti string, userID uint64, issuedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, ok := s.revoked[jti]; ok && now.Before(exp) {
		return true, nil
	}
	if m, ok := s.userMark[userID]; ok && now.Before(m.exp) && issuedAt.Before(m.at) {
		return true, nil
	}
	return false, nil
}

// gc drops expired entries; callers hold mu.
func (s *MemoryStore) gc() {
	now := s.now()
	for h, r := range s.refresh {
		if !now.Before(r.exp) {
			delete(s.refresh, h)
		}
	}
	for j, exp := range s.revoked {
		if !now.Before(exp) {
			delete(s.revoked, j)
		}
	}
	for id, m := range s.userMark {
		if !now.Before(m.exp) {
			delete(s.userMark, id)
		}
	}
}
