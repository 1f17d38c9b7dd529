// Package credential persists user credential records: a username, a password hash, and
// the set of refresh tokens currently issued to that user.
//
// Three backends implement the same contract. [MemoryStore] keeps records in process and
// is used by tests and single-node deployments. [RedisStore] keeps a hash per user plus a
// reverse index from refresh token to owner. [PostgresStore] keeps users and refresh tokens
// in two tables managed by [Migrator].
//
// Every backend enforces username uniqueness at write time, so two concurrent creates for
// the same name cannot both succeed. Refresh-token removal is idempotent.
//
// This package never hashes passwords and never interprets tokens.
package credential
