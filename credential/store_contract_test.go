package credential

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type contractStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByRefreshToken(ctx context.Context, token string) (*User, error)
	Create(ctx context.Context, u User) error
	AppendRefreshToken(ctx context.Context, username, token string) error
	RemoveRefreshToken(ctx context.Context, token string) error
}

// runStoreContract exercises the behavior every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) contractStore) {
	t.Run("create and find", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Create(ctx, User{Username: "alice", PasswordHash: "h1"}); err != nil {
			t.Fatalf("create: %v", err)
		}
		u, err := s.FindByUsername(ctx, "alice")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if u.Username != "alice" || u.PasswordHash != "h1" || len(u.RefreshTokens) != 0 {
			t.Fatalf("unexpected user: %+v", u)
		}
		if _, err := s.FindByUsername(ctx, "bob"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("duplicate create", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Create(ctx, User{Username: "alice", PasswordHash: "h1"}); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := s.Create(ctx, User{Username: "alice", PasswordHash: "h2"}); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		u, _ := s.FindByUsername(ctx, "alice")
		if u.PasswordHash != "h1" {
			t.Fatalf("duplicate create overwrote hash: %q", u.PasswordHash)
		}
	})

	t.Run("concurrent create admits one", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const workers = 16
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.Create(ctx, User{Username: "race", PasswordHash: "h"}); err == nil {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		if created != 1 {
			t.Fatalf("expected exactly one create to win, got %d", created)
		}
	})

	t.Run("refresh token lifecycle", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Create(ctx, User{Username: "alice", PasswordHash: "h1"}); err != nil {
			t.Fatalf("create: %v", err)
		}
		for _, tok := range []string{"t1", "t2"} {
			if err := s.AppendRefreshToken(ctx, "alice", tok); err != nil {
				t.Fatalf("append %s: %v", tok, err)
			}
		}

		u, err := s.FindByRefreshToken(ctx, "t2")
		if err != nil {
			t.Fatalf("find by token: %v", err)
		}
		if u.Username != "alice" || !u.HasRefreshToken("t1") || !u.HasRefreshToken("t2") {
			t.Fatalf("unexpected user: %+v", u)
		}

		if err := s.RemoveRefreshToken(ctx, "t1"); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if err := s.RemoveRefreshToken(ctx, "t1"); err != nil {
			t.Fatalf("second remove must be a no-op: %v", err)
		}
		if _, err := s.FindByRefreshToken(ctx, "t1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected removed token to be unknown, got %v", err)
		}
		if _, err := s.FindByRefreshToken(ctx, "t2"); err != nil {
			t.Fatalf("sibling token must survive removal: %v", err)
		}
	})

	t.Run("append for unknown user", func(t *testing.T) {
		s := newStore(t)
		if err := s.AppendRefreshToken(context.Background(), "ghost", "t"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("remove unknown token", func(t *testing.T) {
		s := newStore(t)
		if err := s.RemoveRefreshToken(context.Background(), "never-issued"); err != nil {
			t.Fatalf("expected no-op, got %v", err)
		}
	})
}
