package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/tokenauth/credential"
	"github.com/MrEthical07/tokenauth/password"
)

// RegisterFailureKind classifies register flow failures for root-level mapping.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureDuplicate
	RegisterFailurePasswordTooLong
	RegisterFailureLookup
	RegisterFailureHash
	RegisterFailureCreate
)

// RegisterResult reports how a registration ended.
type RegisterResult struct {
	Failure RegisterFailureKind
	Err     error
}

type RegisterStore interface {
	FindByUsername(ctx context.Context, username string) (*credential.User, error)
	Create(ctx context.Context, u credential.User) error
}

// RegisterDeps captures register flow dependencies.
type RegisterDeps struct {
	Store RegisterStore
	Hash  func(string) (string, error)
	Now   func() time.Time
}

// RunRegister checks for an existing user, hashes the password and creates the record.
// The lookup is an early exit only; the store's Create is what guarantees uniqueness.
func RunRegister(ctx context.Context, username, plaintext string, deps RegisterDeps) RegisterResult {
	_, err := deps.Store.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return RegisterResult{Failure: RegisterFailureDuplicate, Err: credential.ErrAlreadyExists}
	case !errors.Is(err, credential.ErrNotFound):
		return RegisterResult{Failure: RegisterFailureLookup, Err: err}
	}

	hash, err := deps.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return RegisterResult{Failure: RegisterFailurePasswordTooLong, Err: err}
		}
		return RegisterResult{Failure: RegisterFailureHash, Err: err}
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	err = deps.Store.Create(ctx, credential.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now().UTC(),
	})
	if err != nil {
		if errors.Is(err, credential.ErrAlreadyExists) {
			return RegisterResult{Failure: RegisterFailureDuplicate, Err: err}
		}
		return RegisterResult{Failure: RegisterFailureCreate, Err: err}
	}

	return RegisterResult{}
}
