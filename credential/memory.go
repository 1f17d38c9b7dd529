package credential

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process store guarded by a single RWMutex.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*User
	byToken map[string]string
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*User),
		byToken: make(map[string]string),
		now:     time.Now,
	}
}

// FindByUsername returns a copy of the record for username.
func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return u.clone(), nil
}

// FindByRefreshToken returns a copy of the record holding token.
func (s *MemoryStore) FindByRefreshToken(ctx context.Context, token string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	return s.users[owner].clone(), nil
}

// Create inserts u. The check and insert happen under one lock.
func (s *MemoryStore) Create(ctx context.Context, u User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.Username]; exists {
		return ErrAlreadyExists
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	u.RefreshTokens = nil
	s.users[u.Username] = &u
	return nil
}

// AppendRefreshToken records token as issued to username.
func (s *MemoryStore) AppendRefreshToken(ctx context.Context, username, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	if _, taken := s.byToken[token]; taken {
		return nil
	}
	u.RefreshTokens = append(u.RefreshTokens, token)
	s.byToken[token] = username
	return nil
}

// RemoveRefreshToken drops token from whichever user holds it. Unknown tokens are a no-op.
func (s *MemoryStore) RemoveRefreshToken(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.byToken[token]
	if !ok {
		return nil
	}
	delete(s.byToken, token)

	u := s.users[owner]
	kept := u.RefreshTokens[:0]
	for _, t := range u.RefreshTokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	u.RefreshTokens = kept
	return nil
}

// Len reports the number of stored users.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
