package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/tokenauth/credential"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureUnknownUser
	LoginFailureWrongPassword
	LoginFailureLookup
	LoginFailureVerify
	LoginFailureIssue
	LoginFailurePersist
)

// LoginResult carries either the issued token pair or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	AccessToken  string
	RefreshToken string
}

type LoginStore interface {
	FindByUsername(ctx context.Context, username string) (*credential.User, error)
	AppendRefreshToken(ctx context.Context, username, token string) error
}

// LoginDeps captures login flow dependencies.
//
// DummyHash is verified against when the username is unknown so that both
// rejection paths cost one hash verification.
type LoginDeps struct {
	Store        LoginStore
	Verify       func(plaintext, hash string) (bool, error)
	DummyHash    string
	IssueAccess  func(string) (string, error)
	IssueRefresh func(string) (string, error)
}

// RunLogin verifies credentials, mints both tokens and records the refresh token.
func RunLogin(ctx context.Context, username, plaintext string, deps LoginDeps) LoginResult {
	user, err := deps.Store.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			return LoginResult{Failure: LoginFailureLookup, Err: err}
		}
		if deps.DummyHash != "" {
			_, _ = deps.Verify(plaintext, deps.DummyHash)
		}
		return LoginResult{Failure: LoginFailureUnknownUser, Err: err}
	}

	ok, err := deps.Verify(plaintext, user.PasswordHash)
	if err != nil {
		return LoginResult{Failure: LoginFailureVerify, Err: err}
	}
	if !ok {
		return LoginResult{Failure: LoginFailureWrongPassword}
	}

	access, err := deps.IssueAccess(user.Username)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err}
	}
	refresh, err := deps.IssueRefresh(user.Username)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err}
	}

	if err := deps.Store.AppendRefreshToken(ctx, user.Username, refresh); err != nil {
		return LoginResult{Failure: LoginFailurePersist, Err: err}
	}

	return LoginResult{AccessToken: access, RefreshToken: refresh}
}
