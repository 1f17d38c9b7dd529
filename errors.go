package tokenauth

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned by Register when username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrPasswordTooLong is returned by Register when the password exceeds the hasher's input limit.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrAccountExists is returned by Register when the username is taken.
	ErrAccountExists = errors.New("user already exists")
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrRefreshMissing is returned by Refresh when no token was presented.
	ErrRefreshMissing = errors.New("refresh token required")
	// ErrRefreshInvalid covers revoked, unknown, badly signed, expired and mismatched refresh tokens.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrTokenRequired is returned by the access gate when no bearer token was presented.
	ErrTokenRequired = errors.New("token required")
	// ErrTokenExpired is returned by ValidateAccess for a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned by ValidateAccess for any other rejected access token.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrInternal marks store, hashing and signing failures. Details stay in the wrapped cause.
	ErrInternal = errors.New("internal error")
	// ErrEngineNotReady is returned when an Engine method is called on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Kind is the externally visible class of an error.
type Kind uint8

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

var errorKinds = []struct {
	err  error
	kind Kind
}{
	{ErrMissingCredentials, KindBadRequest},
	{ErrPasswordTooLong, KindBadRequest},
	{ErrAccountExists, KindConflict},
	{ErrInvalidCredentials, KindUnauthorized},
	{ErrRefreshMissing, KindUnauthorized},
	{ErrTokenRequired, KindUnauthorized},
	{ErrRefreshInvalid, KindForbidden},
	{ErrTokenExpired, KindForbidden},
	{ErrTokenInvalid, KindForbidden},
}

// KindOf classifies err. Anything not produced by this package is KindInternal.
func KindOf(err error) Kind {
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return KindInternal
}

func internalError(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, cause)
}
