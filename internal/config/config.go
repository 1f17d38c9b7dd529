// Package config loads authd settings from defaults, an optional YAML file, the
// environment and command-line flags, in increasing order of precedence.
//
// Environment variables use the AUTHD_ prefix with "__" separating nested keys,
// so AUTHD_STORE__DRIVER sets store.driver.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/tokenauth"
)

const (
	envPrefix = "AUTHD_"
	delim     = "."
)

// Settings is the full authd configuration.
type Settings struct {
	Server   ServerSettings   `koanf:"server"`
	Store    StoreSettings    `koanf:"store"`
	JWT      JWTSettings      `koanf:"jwt"`
	Password PasswordSettings `koanf:"password"`
	Log      LogSettings      `koanf:"log"`
	Metrics  MetricsSettings  `koanf:"metrics"`
	Audit    AuditSettings    `koanf:"audit"`
}

type ServerSettings struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StoreSettings selects the credential backend: memory, redis, miniredis or postgres.
// miniredis runs an in-process Redis server and loses its data on exit.
type StoreSettings struct {
	Driver      string `koanf:"driver"`
	RedisAddr   string `koanf:"redis_addr"`
	RedisPrefix string `koanf:"redis_prefix"`
	DatabaseURL string `koanf:"database_url"`
}

type JWTSettings struct {
	AccessSecret  string        `koanf:"access_secret"`
	RefreshSecret string        `koanf:"refresh_secret"`
	AccessTTL     time.Duration `koanf:"access_ttl"`
	RefreshTTL    time.Duration `koanf:"refresh_ttl"`
	Issuer        string        `koanf:"issuer"`
}

type PasswordSettings struct {
	Algorithm  string `koanf:"algorithm"`
	BcryptCost int    `koanf:"bcrypt_cost"`
}

type LogSettings struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type MetricsSettings struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type AuditSettings struct {
	Enabled bool `koanf:"enabled"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":             ":3000",
		"server.read_timeout":     "10s",
		"server.write_timeout":    "10s",
		"server.shutdown_timeout": "15s",
		"store.driver":            "memory",
		"store.redis_addr":        "localhost:6379",
		"store.redis_prefix":      "ta",
		"jwt.access_ttl":          "15m",
		"jwt.refresh_ttl":         "168h",
		"password.algorithm":      "bcrypt",
		"password.bcrypt_cost":    10,
		"log.level":               "info",
		"log.format":              "json",
		"metrics.enabled":         true,
		"metrics.path":            "/metrics",
		"audit.enabled":           false,
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":         "server.addr",
	"store":        "store.driver",
	"redis-addr":   "store.redis_addr",
	"database-url": "store.database_url",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// RegisterFlags adds the overridable settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("addr", ":3000", "listen address")
	fs.String("store", "memory", "credential store: memory, redis, miniredis or postgres")
	fs.String("redis-addr", "localhost:6379", "redis address")
	fs.String("database-url", "", "postgres connection string")
	fs.String("log-level", "info", "log level")
	fs.String("log-format", "json", "log format: json or text")
}

// Load builds Settings. path may be empty; fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Settings, error) {
	k := koanf.New(delim)

	for key, val := range defaults() {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_DEFAULTS_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, delim, envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, delim, k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", delim)
}

// Validate checks the settings authd needs before touching any backend.
func (s *Settings) Validate() error {
	switch s.Store.Driver {
	case "memory", "redis", "miniredis":
	case "postgres":
		if s.Store.DatabaseURL == "" {
			return oops.Code("CONFIG_INVALID").Errorf("store.database_url is required for postgres")
		}
	default:
		return oops.Code("CONFIG_INVALID").Errorf("unknown store driver %q", s.Store.Driver)
	}
	if s.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr is required")
	}
	if !strings.HasPrefix(s.Metrics.Path, "/") {
		return oops.Code("CONFIG_INVALID").Errorf("metrics.path must start with /")
	}
	return nil
}

// EngineConfig translates the settings into a tokenauth.Config. Signing secrets are
// validated by the engine builder.
func (s *Settings) EngineConfig() tokenauth.Config {
	cfg := tokenauth.DefaultConfig()
	cfg.JWT.Access.Secret = []byte(s.JWT.AccessSecret)
	cfg.JWT.Refresh.Secret = []byte(s.JWT.RefreshSecret)
	cfg.JWT.Access.TTL = s.JWT.AccessTTL
	cfg.JWT.Refresh.TTL = s.JWT.RefreshTTL
	cfg.JWT.Issuer = s.JWT.Issuer
	cfg.Password.Algorithm = s.Password.Algorithm
	cfg.Password.BcryptCost = s.Password.BcryptCost
	cfg.Metrics.Enabled = s.Metrics.Enabled
	cfg.Audit.Enabled = s.Audit.Enabled
	return cfg
}
