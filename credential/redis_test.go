package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewRedisStore(rdb, "ta"), mr
}

func TestRedisStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) contractStore {
		s, _ := newRedisStoreTest(t)
		return s
	})
}

func TestRedisStoreKeyLayout(t *testing.T) {
	s, mr := newRedisStoreTest(t)
	ctx := context.Background()

	if err := s.Create(ctx, User{Username: "alice", PasswordHash: "h"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.AppendRefreshToken(ctx, "alice", "tok"); err != nil {
		t.Fatalf("append: %v", err)
	}

	if got := mr.HGet("ta:user:alice", "password_hash"); got != "h" {
		t.Fatalf("expected password_hash field, got %q", got)
	}
	members, err := mr.Members("ta:user:alice:refresh")
	if err != nil || len(members) != 1 || members[0] != "tok" {
		t.Fatalf("unexpected token set: %v %v", members, err)
	}
	if owner, err := mr.Get(s.tokenKey("tok")); err != nil || owner != "alice" {
		t.Fatalf("unexpected reverse index: %q %v", owner, err)
	}

	if err := s.RemoveRefreshToken(ctx, "tok"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if mr.Exists(s.tokenKey("tok")) {
		t.Fatal("expected reverse index to be deleted")
	}
}

func TestRedisStoreRemoveRefreshToken(t *testing.T) {
	s, mr := newRedisStoreTest(t)
	ctx := context.Background()

	if err := s.Create(ctx, User{Username: "alice", PasswordHash: "h"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, tok := range []string{"keep", "drop"} {
		if err := s.AppendRefreshToken(ctx, "alice", tok); err != nil {
			t.Fatalf("append %s: %v", tok, err)
		}
	}

	if err := s.RemoveRefreshToken(ctx, "drop"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	members, err := mr.Members("ta:user:alice:refresh")
	if err != nil || len(members) != 1 || members[0] != "keep" {
		t.Fatalf("expected only keep to remain, got %v %v", members, err)
	}
	if mr.Exists(s.tokenKey("drop")) {
		t.Fatal("expected reverse index for drop to be deleted")
	}
	if !mr.Exists(s.tokenKey("keep")) {
		t.Fatal("reverse index for keep must survive")
	}

	if err := s.RemoveRefreshToken(ctx, "never-issued"); err != nil {
		t.Fatalf("unknown token should be a no-op, got %v", err)
	}
	if _, err := s.FindByRefreshToken(ctx, "keep"); err != nil {
		t.Fatalf("keep should still resolve: %v", err)
	}
}

func TestRemoveTokenScriptOnlyTouchesDeclaredKeys(t *testing.T) {
	s, mr := newRedisStoreTest(t)
	ctx := context.Background()

	// Key names unrelated to the store prefix: the script must act on KEYS alone.
	mr.Set("idx", "bob")
	if _, err := mr.SetAdd("bob-tokens", "t1", "t2"); err != nil {
		t.Fatalf("seed set: %v", err)
	}

	n, err := removeTokenLua.Run(ctx, s.redis, []string{"idx", "bob-tokens"}, "t1", "bob").Int64()
	if err != nil || n != 1 {
		t.Fatalf("script run: %d %v", n, err)
	}
	members, err := mr.Members("bob-tokens")
	if err != nil || len(members) != 1 || members[0] != "t2" {
		t.Fatalf("expected t1 removed from declared set, got %v %v", members, err)
	}
	if mr.Exists("idx") {
		t.Fatal("expected declared index key to be deleted")
	}

	mr.Set("idx", "carol")
	n, err = removeTokenLua.Run(ctx, s.redis, []string{"idx", "bob-tokens"}, "t2", "bob").Int64()
	if err != nil || n != 0 {
		t.Fatalf("owner mismatch should be a no-op: %d %v", n, err)
	}
	if !mr.Exists("idx") {
		t.Fatal("index owned by someone else must be left alone")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	s, mr := newRedisStoreTest(t)
	mr.Close()

	_, err := s.FindByUsername(context.Background(), "alice")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ping to report ErrUnavailable, got %v", err)
	}
}
