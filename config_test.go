package tokenauth

import (
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Access.Secret = []byte("access-secret-for-tests-00000001")
	cfg.JWT.Refresh.Secret = []byte("refresh-secret-for-tests-0000001")
	cfg.Password.BcryptCost = 4
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults with secrets",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name: "missing access secret",
			mutate: func(c *Config) {
				c.JWT.Access.Secret = nil
			},
			wantValid: false,
		},
		{
			name: "identical secrets",
			mutate: func(c *Config) {
				c.JWT.Refresh.Secret = c.JWT.Access.Secret
			},
			wantValid: false,
		},
		{
			name: "zero access ttl",
			mutate: func(c *Config) {
				c.JWT.Access.TTL = 0
			},
			wantValid: false,
		},
		{
			name: "refresh shorter than access",
			mutate: func(c *Config) {
				c.JWT.Refresh.TTL = time.Minute
			},
			wantValid: false,
		},
		{
			name: "jwt leeway valid",
			mutate: func(c *Config) {
				c.JWT.Leeway = 45 * time.Second
			},
			wantValid: true,
		},
		{
			name: "jwt leeway invalid",
			mutate: func(c *Config) {
				c.JWT.Leeway = 3 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "jwt signing invalid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "rs256"
			},
			wantValid: false,
		},
		{
			name: "ed25519 without keys",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "ed25519"
			},
			wantValid: false,
		},
		{
			name: "argon2id valid",
			mutate: func(c *Config) {
				c.Password.Algorithm = "argon2id"
			},
			wantValid: true,
		},
		{
			name: "password algorithm invalid",
			mutate: func(c *Config) {
				c.Password.Algorithm = "md5"
			},
			wantValid: false,
		},
		{
			name: "bcrypt cost invalid",
			mutate: func(c *Config) {
				c.Password.BcryptCost = 40
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigDetachesSecrets(t *testing.T) {
	cfg := validTestConfig()
	clone := cloneConfig(cfg)
	cfg.JWT.Access.Secret[0] = 'X'
	if clone.JWT.Access.Secret[0] == 'X' {
		t.Fatal("expected cloned secret to be independent of the original")
	}
}
