package credential

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const createUserScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "password_hash", ARGV[1], "created_at", ARGV[2])
return 1
`

var createUserLua = redis.NewScript(createUserScript)

const appendTokenScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("SADD", KEYS[2], ARGV[1])
redis.call("SET", KEYS[3], ARGV[2])
return 1
`

var appendTokenLua = redis.NewScript(appendTokenScript)

const removeTokenScript = `
if redis.call("GET", KEYS[1]) ~= ARGV[2] then
  return 0
end
redis.call("SREM", KEYS[2], ARGV[1])
redis.call("DEL", KEYS[1])
return 1
`

var removeTokenLua = redis.NewScript(removeTokenScript)

// RedisStore keeps each user as a hash with a companion set of refresh tokens.
//
// Key layout, for prefix "ta":
//
//	ta:user:<username>            hash {password_hash, created_at}
//	ta:user:<username>:refresh    set of refresh tokens
//	ta:refresh:<sha256(token)>    owning username
//
// Every script names the keys it touches in KEYS. The scripts still span the
// user and token keys, so a Redis Cluster deployment needs them in one slot.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore returns a RedisStore. An empty prefix defaults to "ta".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ta"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) userPrefix() string {
	return s.prefix + ":user:"
}

func (s *RedisStore) userKey(username string) string {
	return s.userPrefix() + username
}

func (s *RedisStore) tokensKey(username string) string {
	return s.userKey(username) + ":refresh"
}

func (s *RedisStore) tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + ":refresh:" + hex.EncodeToString(sum[:])
}

// FindByUsername loads the user hash and its token set in one round trip.
func (s *RedisStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	var (
		fields *redis.MapStringStringCmd
		tokens *redis.StringSliceCmd
	)
	_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, s.userKey(username))
		tokens = pipe.SMembers(ctx, s.tokensKey(username))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	values := fields.Val()
	if len(values) == 0 {
		return nil, ErrNotFound
	}

	u := &User{
		Username:      username,
		PasswordHash:  values["password_hash"],
		RefreshTokens: tokens.Val(),
	}
	if unix, err := strconv.ParseInt(values["created_at"], 10, 64); err == nil {
		u.CreatedAt = time.Unix(unix, 0)
	}
	return u, nil
}

// FindByRefreshToken resolves the owner through the reverse index.
func (s *RedisStore) FindByRefreshToken(ctx context.Context, token string) (*User, error) {
	owner, err := s.redis.Get(ctx, s.tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	u, err := s.FindByUsername(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !u.HasRefreshToken(token) {
		return nil, ErrNotFound
	}
	return u, nil
}

// Create writes the user hash only if the key does not exist yet.
func (s *RedisStore) Create(ctx context.Context, u User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	created, err := createUserLua.Run(ctx, s.redis,
		[]string{s.userKey(u.Username)},
		u.PasswordHash, createdAt.Unix(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if created == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// AppendRefreshToken adds token to the user's set and indexes it.
func (s *RedisStore) AppendRefreshToken(ctx context.Context, username, token string) error {
	ok, err := appendTokenLua.Run(ctx, s.redis,
		[]string{s.userKey(username), s.tokensKey(username), s.tokenKey(token)},
		token, username,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ok == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveRefreshToken drops token from its owner's set. Unknown tokens are a no-op.
//
// The owner is read first so the script can declare the owner's set as a key;
// the script rechecks it and does nothing if the index changed in between.
func (s *RedisStore) RemoveRefreshToken(ctx context.Context, token string) error {
	tokenKey := s.tokenKey(token)
	owner, err := s.redis.Get(ctx, tokenKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	err = removeTokenLua.Run(ctx, s.redis,
		[]string{tokenKey, s.tokensKey(owner)},
		token, owner,
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
