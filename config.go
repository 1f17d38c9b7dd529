package tokenauth

import (
	"bytes"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds everything the Engine needs besides its store, logger and audit sink.
//
// Config values are copied by [Builder.WithConfig]; mutating the caller's copy afterwards has no effect.
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the two signing domains.
type JWTConfig struct {
	SigningMethod string // "hs256" (default) or "ed25519"
	Access        TokenConfig
	Refresh       TokenConfig
	Issuer        string
	Leeway        time.Duration
}

// TokenConfig holds one signing domain's lifetime and key material.
// Secret is used by hs256; PrivateKey and PublicKey by ed25519.
type TokenConfig struct {
	TTL        time.Duration
	Secret     []byte
	PrivateKey []byte
	PublicKey  []byte
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the algorithm for new hashes. Stored hashes of either
// algorithm keep verifying after a switch.
type PasswordConfig struct {
	Algorithm   string // "bcrypt" (default) or "argon2id"
	BcryptCost  int
	Memory      uint32 // argon2id, in KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters exposed by [Engine.MetricsSnapshot].
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a Config with production lifetimes and no signing secrets.
// Secrets must be supplied before Build.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod: "hs256",
			Access:        TokenConfig{TTL: 15 * time.Minute},
			Refresh:       TokenConfig{TTL: 7 * 24 * time.Hour},
		},
		Password: PasswordConfig{
			Algorithm:   "bcrypt",
			BcryptCost:  10,
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Access = cloneTokenConfig(cfg.JWT.Access)
	out.JWT.Refresh = cloneTokenConfig(cfg.JWT.Refresh)
	return out
}

func cloneTokenConfig(tc TokenConfig) TokenConfig {
	tc.Secret = cloneBytes(tc.Secret)
	tc.PrivateKey = cloneBytes(tc.PrivateKey)
	tc.PublicKey = cloneBytes(tc.PublicKey)
	return tc
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found, or nil.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.Access.TTL <= 0 {
		return errors.New("JWT Access.TTL must be > 0")
	}
	if c.JWT.Refresh.TTL <= 0 {
		return errors.New("JWT Refresh.TTL must be > 0")
	}
	if c.JWT.Refresh.TTL < c.JWT.Access.TTL {
		return errors.New("JWT Refresh.TTL must be >= Access.TTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	switch c.JWT.SigningMethod {
	case "", "hs256":
		if len(c.JWT.Access.Secret) == 0 || len(c.JWT.Refresh.Secret) == 0 {
			return errors.New("hs256 requires Access.Secret and Refresh.Secret")
		}
		if bytes.Equal(c.JWT.Access.Secret, c.JWT.Refresh.Secret) {
			return errors.New("Access.Secret and Refresh.Secret must differ")
		}
	case "ed25519":
		if len(c.JWT.Access.PrivateKey) == 0 || len(c.JWT.Refresh.PrivateKey) == 0 {
			return errors.New("ed25519 requires Access.PrivateKey and Refresh.PrivateKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}

	// Password
	switch c.Password.Algorithm {
	case "", "bcrypt":
		if c.Password.BcryptCost != 0 && (c.Password.BcryptCost < bcrypt.MinCost || c.Password.BcryptCost > bcrypt.MaxCost) {
			return errors.New("Password BcryptCost out of range")
		}
	case "argon2id":
		if c.Password.Memory == 0 || c.Password.Time == 0 || c.Password.Parallelism == 0 {
			return errors.New("argon2id requires Memory, Time and Parallelism")
		}
	default:
		return errors.New("unsupported password algorithm")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit BufferSize must be >= 0")
	}

	return nil
}
