package tokenauth

import (
	"context"

	"github.com/MrEthical07/tokenauth/credential"
	"github.com/MrEthical07/tokenauth/jwt"
)

// User is the persisted credential record.
type User = credential.User

// CredentialStore persists users and the refresh tokens issued to them.
//
// Implementations must make Create atomic with respect to username uniqueness and
// must treat RemoveRefreshToken of an unknown token as success. The credential package
// provides in-memory, Redis and PostgreSQL implementations.
type CredentialStore interface {
	// FindByUsername returns credential.ErrNotFound when no such user exists.
	FindByUsername(ctx context.Context, username string) (*User, error)
	// FindByRefreshToken returns the user whose token set contains token.
	FindByRefreshToken(ctx context.Context, token string) (*User, error)
	// Create returns credential.ErrAlreadyExists when the username is taken.
	Create(ctx context.Context, u User) error
	AppendRefreshToken(ctx context.Context, username, token string) error
	RemoveRefreshToken(ctx context.Context, token string) error
}

// Claims is the decoded identity carried by a verified access token.
type Claims = jwt.Claims
