package tokenauth

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/tokenauth/internal/audit"
	"github.com/MrEthical07/tokenauth/internal/flows"
	"github.com/MrEthical07/tokenauth/jwt"
	"github.com/MrEthical07/tokenauth/password"
)

// Engine implements register, login, refresh, logout and access validation over a
// [CredentialStore]. Build one with [New]. An Engine is safe for concurrent use and
// holds no mutable state of its own beyond counters; every durable change goes
// through the store.
type Engine struct {
	config  Config
	store   CredentialStore
	issuer  *jwt.Issuer
	hasher  *password.Scheme
	logger  *slog.Logger
	audit   *audit.Dispatcher
	metrics *Metrics
	flows   flows.Service
}

func (e *Engine) buildFlowDeps(dummyHash string) flows.Deps {
	return flows.Deps{
		Register: flows.RegisterDeps{
			Store: e.store,
			Hash:  e.hasher.Hash,
		},
		Login: flows.LoginDeps{
			Store:        e.store,
			Verify:       e.hasher.Verify,
			DummyHash:    dummyHash,
			IssueAccess:  e.issuer.IssueAccess,
			IssueRefresh: e.issuer.IssueRefresh,
		},
		Refresh: flows.RefreshDeps{
			Store:         e.store,
			VerifyRefresh: e.verifier(jwt.DomainRefresh),
			IssueAccess:   e.issuer.IssueAccess,
		},
		Logout: flows.LogoutDeps{
			Store: e.store,
		},
		Validate: flows.ValidateDeps{
			VerifyAccess: e.verifier(jwt.DomainAccess),
		},
	}
}

func (e *Engine) verifier(d jwt.Domain) func(string) (*jwt.Claims, jwt.Outcome) {
	return func(tok string) (*jwt.Claims, jwt.Outcome) {
		return e.issuer.Verify(d, tok)
	}
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Close stops the audit dispatcher after draining buffered events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the Engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AccessTTL is the lifetime of issued access tokens.
func (e *Engine) AccessTTL() time.Duration {
	return e.config.JWT.Access.TTL
}

// RefreshTTL is the lifetime of issued refresh tokens.
func (e *Engine) RefreshTTL() time.Duration {
	return e.config.JWT.Refresh.TTL
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) internal(ctx context.Context, op string, cause error) error {
	e.logger.ErrorContext(ctx, "operation failed", slog.String("op", op), slog.Any("error", cause))
	return internalError(op, cause)
}

// Register creates a user with a hashed password. No tokens are issued.
//
// It returns ErrMissingCredentials for an empty username or password, ErrAccountExists
// when the username is taken, ErrPasswordTooLong when the hasher rejects the input, and
// an ErrInternal-wrapped error for store or hashing failures.
func (e *Engine) Register(ctx context.Context, username, password string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if username == "" || password == "" {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, username, ErrMissingCredentials, nil)
		return ErrMissingCredentials
	}

	res := e.flows.Register(ctx, username, password)
	switch res.Failure {
	case flows.RegisterFailureNone:
		e.metricInc(MetricRegisterSuccess)
		e.emitAudit(ctx, auditEventRegisterSuccess, true, username, nil, nil)
		return nil
	case flows.RegisterFailureDuplicate:
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterDuplicate, false, username, ErrAccountExists, nil)
		return ErrAccountExists
	case flows.RegisterFailurePasswordTooLong:
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, username, ErrPasswordTooLong, nil)
		return ErrPasswordTooLong
	default:
		err := e.internal(ctx, "register", res.Err)
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, username, err, nil)
		return err
	}
}

// Login verifies the password and returns a new access token and refresh token.
// The refresh token is recorded in the store before Login returns; earlier refresh
// tokens of the same user stay valid.
//
// An unknown username and a wrong password both return ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, username, password string) (string, string, error) {
	if !e.ready() {
		return "", "", ErrEngineNotReady
	}
	if username == "" || password == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, username, ErrInvalidCredentials, nil)
		return "", "", ErrInvalidCredentials
	}

	res := e.flows.Login(ctx, username, password)
	switch res.Failure {
	case flows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, true, username, nil, nil)
		return res.AccessToken, res.RefreshToken, nil
	case flows.LoginFailureUnknownUser, flows.LoginFailureWrongPassword:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, username, ErrInvalidCredentials, nil)
		return "", "", ErrInvalidCredentials
	default:
		err := e.internal(ctx, "login", res.Err)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, username, err, nil)
		return "", "", err
	}
}

// Refresh mints a new access token for the owner of refreshToken. The refresh token
// is neither rotated nor re-stored and can be reused until it expires or is logged out.
//
// It returns ErrRefreshMissing for an empty token and ErrRefreshInvalid when the token
// is not in the store, fails verification, or names a different user than its owner.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, refreshToken)
	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, res.Username, nil, nil)
		return res.AccessToken, nil
	case flows.RefreshFailureMissing:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrRefreshMissing, nil)
		return "", ErrRefreshMissing
	case flows.RefreshFailureNotStored, flows.RefreshFailureVerify, flows.RefreshFailureNameMismatch:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, res.Username, ErrRefreshInvalid, refreshReason(res))
		return "", ErrRefreshInvalid
	default:
		err := e.internal(ctx, "refresh", res.Err)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, res.Username, err, nil)
		return "", err
	}
}

// refreshReason keeps the collapsed cause visible to auditors only.
func refreshReason(res flows.RefreshResult) func() map[string]string {
	return func() map[string]string {
		switch res.Failure {
		case flows.RefreshFailureNotStored:
			return map[string]string{"reason": "not_stored"}
		case flows.RefreshFailureNameMismatch:
			return map[string]string{"reason": "name_mismatch"}
		default:
			return map[string]string{"reason": res.Outcome.String()}
		}
	}
}

// Logout removes refreshToken from the store. Unknown and empty tokens succeed without
// revealing whether they were ever valid. Access tokens already issued stay valid until
// they expire.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	if err := e.flows.Logout(ctx, refreshToken); err != nil {
		err = e.internal(ctx, "logout", err)
		e.emitAudit(ctx, auditEventLogout, false, "", err, nil)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, "", nil, nil)
	return nil
}

// ValidateAccess verifies an access token by signature and expiry alone; the store is
// never consulted. It returns ErrTokenRequired, ErrTokenExpired or ErrTokenInvalid.
func (e *Engine) ValidateAccess(ctx context.Context, tokenStr string) (*Claims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()
	}

	res := e.flows.Validate(tokenStr)
	switch res.Failure {
	case flows.ValidateFailureNone:
		e.metricInc(MetricValidateSuccess)
		return res.Claims, nil
	case flows.ValidateFailureMissing:
		e.metricInc(MetricValidateInvalid)
		return nil, ErrTokenRequired
	case flows.ValidateFailureExpired:
		e.metricInc(MetricValidateExpired)
		return nil, ErrTokenExpired
	default:
		e.metricInc(MetricValidateInvalid)
		return nil, ErrTokenInvalid
	}
}
