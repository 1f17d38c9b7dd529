package tokenauth

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/tokenauth/internal/audit"
	"github.com/MrEthical07/tokenauth/internal/flows"
	"github.com/MrEthical07/tokenauth/jwt"
	"github.com/MrEthical07/tokenauth/password"
)

// dummyPassword is hashed once per Engine so that logins for unknown usernames
// still pay for one verification.
const dummyPassword = "tokenauth-timing-equalizer"

// Builder assembles an [Engine]. A Builder can be built once.
type Builder struct {
	config    Config
	store     CredentialStore
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential store. It is required.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithLogger sets the logger used for internal failures. The default discards.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the sink that receives audit events when Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
//
// Build fails when the builder was already used, the store is missing, the configuration
// is invalid, or the signing keys or hashing parameters are rejected.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.store == nil {
		return nil, errors.New("credential store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// -------- PASSWORD HASHER --------
	hasher, err := password.New(password.Options{
		Algorithm:  password.Algorithm(cfg.Password.Algorithm),
		BcryptCost: cfg.Password.BcryptCost,
		Argon2: password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		},
	})
	if err != nil {
		return nil, err
	}
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}

	// -------- TOKEN ISSUER --------
	issuer, err := jwt.NewIssuer(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		Access: jwt.DomainConfig{
			TTL:        cfg.JWT.Access.TTL,
			Secret:     cloneBytes(cfg.JWT.Access.Secret),
			PrivateKey: cloneBytes(cfg.JWT.Access.PrivateKey),
			PublicKey:  cloneBytes(cfg.JWT.Access.PublicKey),
		},
		Refresh: jwt.DomainConfig{
			TTL:        cfg.JWT.Refresh.TTL,
			Secret:     cloneBytes(cfg.JWT.Refresh.Secret),
			PrivateKey: cloneBytes(cfg.JWT.Refresh.PrivateKey),
			PublicKey:  cloneBytes(cfg.JWT.Refresh.PublicKey),
		},
		Issuer: cfg.JWT.Issuer,
		Leeway: cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:  cfg,
		store:   b.store,
		issuer:  issuer,
		hasher:  hasher,
		logger:  logger,
		metrics: NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Logger:     logger,
		}, b.auditSink),
	}
	engine.flows = flows.New(engine.buildFlowDeps(dummyHash))

	b.built = true

	return engine, nil
}
