package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// pgPool is the subset of *pgxpool.Pool the store uses. pgxmock.PgxPoolIface satisfies it.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const selectUserColumns = `
SELECT u.username, u.password_hash, u.created_at,
       COALESCE(array_agg(r.token ORDER BY r.created_at, r.token) FILTER (WHERE r.token IS NOT NULL), '{}')
FROM users u
LEFT JOIN refresh_tokens r ON r.username = u.username`

const (
	findByUsernameSQL = selectUserColumns + `
WHERE u.username = $1
GROUP BY u.username`

	findByRefreshTokenSQL = selectUserColumns + `
WHERE u.username = (SELECT username FROM refresh_tokens WHERE token = $1)
GROUP BY u.username`

	insertUserSQL  = `INSERT INTO users (username, password_hash, created_at) VALUES ($1, $2, $3)`
	insertTokenSQL = `INSERT INTO refresh_tokens (token, username) VALUES ($1, $2) ON CONFLICT (token) DO NOTHING`
	deleteTokenSQL = `DELETE FROM refresh_tokens WHERE token = $1`
)

// PostgresStore persists credentials in PostgreSQL. The schema is created by [Migrator].
type PostgresStore struct {
	pool pgPool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool pgPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenPostgres dials dsn and returns a store with its pool. The caller closes the pool.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, oops.Code("CREDENTIAL_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	return NewPostgresStore(pool), pool, nil
}

func (s *PostgresStore) scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.Username, &u.PasswordHash, &u.CreatedAt, &u.RefreshTokens); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername loads the user and its tokens in one query.
func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	u, err := s.scanUser(s.pool.QueryRow(ctx, findByUsernameSQL, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, unavailable("CREDENTIAL_QUERY_FAILED", "find by username", err)
	}
	return u, nil
}

// FindByRefreshToken loads the user holding token.
func (s *PostgresStore) FindByRefreshToken(ctx context.Context, token string) (*User, error) {
	u, err := s.scanUser(s.pool.QueryRow(ctx, findByRefreshTokenSQL, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, unavailable("CREDENTIAL_QUERY_FAILED", "find by refresh token", err)
	}
	return u, nil
}

// Create inserts u. The primary key on username rejects duplicates.
func (s *PostgresStore) Create(ctx context.Context, u User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, insertUserSQL, u.Username, u.PasswordHash, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyExists
		}
		return unavailable("CREDENTIAL_CREATE_FAILED", "insert user", err)
	}
	return nil
}

// AppendRefreshToken inserts token for username. A missing user surfaces as ErrNotFound.
func (s *PostgresStore) AppendRefreshToken(ctx context.Context, username, token string) error {
	_, err := s.pool.Exec(ctx, insertTokenSQL, token, username)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrNotFound
		}
		return unavailable("CREDENTIAL_APPEND_FAILED", "insert refresh token", err)
	}
	return nil
}

// RemoveRefreshToken deletes token. Deleting an unknown token succeeds.
func (s *PostgresStore) RemoveRefreshToken(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, deleteTokenSQL, token); err != nil {
		return unavailable("CREDENTIAL_REMOVE_FAILED", "delete refresh token", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable("CREDENTIAL_PING_FAILED", "ping", err)
	}
	return nil
}

func unavailable(code, operation string, err error) error {
	return oops.Code(code).With("operation", operation).Wrap(fmt.Errorf("%w: %w", ErrUnavailable, err))
}
