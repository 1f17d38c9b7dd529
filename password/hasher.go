package password

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTooLong is returned when a password exceeds what the algorithm can hash.
	ErrTooLong = errors.New("password exceeds maximum length")
	// ErrUnknownFormat is returned when a stored hash matches no supported encoding.
	ErrUnknownFormat = errors.New("unrecognized password hash format")
)

// Hasher produces and checks salted one-way password hashes.
//
// Verify returns (false, nil) on mismatch; an error means the stored hash itself is unusable.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// Algorithm names a hashing algorithm for new hashes.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Options selects and tunes the algorithm a [Scheme] hashes with.
type Options struct {
	Algorithm  Algorithm
	BcryptCost int
	Argon2     Config
}

// Scheme hashes with one algorithm and verifies hashes of every supported encoding.
type Scheme struct {
	primary Hasher
}

// New builds a Scheme from opts. An empty Algorithm selects bcrypt.
func New(opts Options) (*Scheme, error) {
	switch opts.Algorithm {
	case "", AlgorithmBcrypt:
		b, err := NewBcrypt(opts.BcryptCost)
		if err != nil {
			return nil, err
		}
		return &Scheme{primary: b}, nil
	case AlgorithmArgon2id:
		a, err := NewArgon2(opts.Argon2)
		if err != nil {
			return nil, err
		}
		return &Scheme{primary: a}, nil
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", opts.Algorithm)
	}
}

// Hash hashes password with the configured algorithm.
func (s *Scheme) Hash(password string) (string, error) {
	return s.primary.Hash(password)
}

// Verify dispatches on the encoding of encodedHash. Argon2 hashes are checked
// under the configured hasher's password cap, or DefaultMaxPasswordBytes when
// the scheme hashes with bcrypt.
func (s *Scheme) Verify(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, "$"+algorithmID+"$"):
		if a, ok := s.primary.(*Argon2); ok {
			return a.Verify(password, encodedHash)
		}
		if len(password) > DefaultMaxPasswordBytes {
			return false, nil
		}
		return verifyArgon2(password, encodedHash)
	case isBcryptHash(encodedHash):
		return verifyBcrypt(password, encodedHash)
	default:
		return false, ErrUnknownFormat
	}
}
