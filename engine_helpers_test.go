package tokenauth

import (
	"context"
	"testing"

	"github.com/MrEthical07/tokenauth/credential"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestEngine(t *testing.T, store CredentialStore, mutate func(*Config)) *Engine {
	t.Helper()

	cfg := validTestConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := New().WithConfig(cfg).WithStore(store).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

// storeBackends runs fn against every store that needs no external service.
func storeBackends(t *testing.T, fn func(t *testing.T, store CredentialStore)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, credential.NewMemoryStore())
	})
	t.Run("redis", func(t *testing.T) {
		_, rdb := newTestRedis(t)
		fn(t, credential.NewRedisStore(rdb, "test"))
	})
}

// faultyStore fails selected operations with credential.ErrUnavailable.
type faultyStore struct {
	CredentialStore
	failFind   bool
	failCreate bool
	failAppend bool
	failRemove bool
}

func (s *faultyStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	if s.failFind {
		return nil, credential.ErrUnavailable
	}
	return s.CredentialStore.FindByUsername(ctx, username)
}

func (s *faultyStore) FindByRefreshToken(ctx context.Context, token string) (*User, error) {
	if s.failFind {
		return nil, credential.ErrUnavailable
	}
	return s.CredentialStore.FindByRefreshToken(ctx, token)
}

func (s *faultyStore) Create(ctx context.Context, u User) error {
	if s.failCreate {
		return credential.ErrUnavailable
	}
	return s.CredentialStore.Create(ctx, u)
}

func (s *faultyStore) AppendRefreshToken(ctx context.Context, username, token string) error {
	if s.failAppend {
		return credential.ErrUnavailable
	}
	return s.CredentialStore.AppendRefreshToken(ctx, username, token)
}

func (s *faultyStore) RemoveRefreshToken(ctx context.Context, token string) error {
	if s.failRemove {
		return credential.ErrUnavailable
	}
	return s.CredentialStore.RemoveRefreshToken(ctx, token)
}
