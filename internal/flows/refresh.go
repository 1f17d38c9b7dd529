package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/tokenauth/credential"
	"github.com/MrEthical07/tokenauth/jwt"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureNotStored
	RefreshFailureLookup
	RefreshFailureVerify
	RefreshFailureNameMismatch
	RefreshFailureIssue
)

// RefreshResult carries either a new access token or failure metadata.
// Outcome is set when the store lookup succeeded and the token was verified.
type RefreshResult struct {
	Failure     RefreshFailureKind
	Err         error
	Username    string
	Outcome     jwt.Outcome
	AccessToken string
}

type RefreshStore interface {
	FindByRefreshToken(ctx context.Context, token string) (*credential.User, error)
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Store         RefreshStore
	VerifyRefresh func(string) (*jwt.Claims, jwt.Outcome)
	IssueAccess   func(string) (string, error)
}

// RunRefresh resolves the token's owner in the store, then verifies the token and
// checks that its name claim matches that owner. The refresh token is never rotated.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if refreshToken == "" {
		return RefreshResult{Failure: RefreshFailureMissing}
	}

	user, err := deps.Store.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return RefreshResult{Failure: RefreshFailureNotStored, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureLookup, Err: err}
	}

	claims, outcome := deps.VerifyRefresh(refreshToken)
	if outcome != jwt.OutcomeValid {
		return RefreshResult{Failure: RefreshFailureVerify, Username: user.Username, Outcome: outcome}
	}
	if claims.Name != user.Username {
		return RefreshResult{Failure: RefreshFailureNameMismatch, Username: user.Username, Outcome: outcome}
	}

	access, err := deps.IssueAccess(user.Username)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, Username: user.Username, Outcome: outcome}
	}

	return RefreshResult{Username: user.Username, Outcome: outcome, AccessToken: access}
}
