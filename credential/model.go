package credential

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("credential not found")
	// ErrAlreadyExists is returned by Create when the username is taken.
	ErrAlreadyExists = errors.New("credential already exists")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("credential store unavailable")
)

// User is a stored credential record. PasswordHash is never the plaintext password.
type User struct {
	Username      string
	PasswordHash  string
	RefreshTokens []string
	CreatedAt     time.Time
}

// HasRefreshToken reports whether token is currently issued to u.
func (u *User) HasRefreshToken(token string) bool {
	for _, t := range u.RefreshTokens {
		if t == token {
			return true
		}
	}
	return false
}

func (u *User) clone() *User {
	c := *u
	c.RefreshTokens = append([]string(nil), u.RefreshTokens...)
	return &c
}
