package jwt

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the JWS algorithm shared by both signing domains.
type SigningMethod string

const (
	// MethodHS256 signs with a per-domain shared secret. It is the default.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with a per-domain Ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
)

// Domain identifies one of the two independent signing domains.
type Domain uint8

const (
	// DomainAccess covers short-lived access tokens.
	DomainAccess Domain = iota
	// DomainRefresh covers long-lived refresh tokens.
	DomainRefresh
)

func (d Domain) String() string {
	switch d {
	case DomainAccess:
		return "access"
	case DomainRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Outcome is the result of [Issuer.Verify]. The zero value is OutcomeInvalid.
type Outcome uint8

const (
	// OutcomeInvalid means the token is malformed, badly signed, or missing required claims.
	OutcomeInvalid Outcome = iota
	// OutcomeValid means the signature and every claim check passed.
	OutcomeValid
	// OutcomeExpired means the signature is good but the expiration has elapsed.
	OutcomeExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// DomainConfig holds the key material and lifetime for one signing domain.
//
// Secret is used with MethodHS256. PrivateKey/PublicKey (raw bytes or PEM) are used with
// MethodEd25519; PublicKey may be omitted when PrivateKey is set.
type DomainConfig struct {
	TTL        time.Duration
	Secret     []byte
	PrivateKey []byte
	PublicKey  []byte
}

// Config configures an [Issuer].
type Config struct {
	SigningMethod SigningMethod
	Access        DomainConfig
	Refresh       DomainConfig
	Issuer        string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
}

// Claims is the decoded token payload: the identity name plus registered metadata.
// Name, IssuedAt and ExpiresAt are required; tokens lacking any of them verify as invalid.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type domainKeys struct {
	ttl      time.Duration
	audience string
	sign     interface{}
	verify   interface{}
}

// Issuer signs and verifies tokens in the access and refresh domains.
// It is immutable after construction and safe for concurrent use.
type Issuer struct {
	method       jwt.SigningMethod
	issuer       string
	leeway       time.Duration
	maxFutureIAT time.Duration
	domains      [2]domainKeys
	now          func() time.Time
}

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodHS256
	}

	iss := &Issuer{
		issuer:       strings.TrimSpace(cfg.Issuer),
		leeway:       cfg.Leeway,
		maxFutureIAT: cfg.MaxFutureIAT,
		now:          time.Now,
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		iss.method = jwt.SigningMethodHS256
		if bytes.Equal(cfg.Access.Secret, cfg.Refresh.Secret) {
			return nil, errors.New("access and refresh secrets must differ")
		}
	case MethodEd25519:
		iss.method = jwt.SigningMethodEdDSA
	default:
		return nil, errors.New("unsupported signing method")
	}

	for _, d := range []Domain{DomainAccess, DomainRefresh} {
		dc := cfg.Access
		if d == DomainRefresh {
			dc = cfg.Refresh
		}
		keys, err := buildDomainKeys(cfg.SigningMethod, d, dc)
		if err != nil {
			return nil, err
		}
		iss.domains[d] = keys
	}

	if cfg.SigningMethod == MethodEd25519 {
		a := iss.domains[DomainAccess].verify.(ed25519.PublicKey)
		r := iss.domains[DomainRefresh].verify.(ed25519.PublicKey)
		if a.Equal(r) {
			return nil, errors.New("access and refresh keys must differ")
		}
	}

	return iss, nil
}

func buildDomainKeys(method SigningMethod, d Domain, dc DomainConfig) (domainKeys, error) {
	if dc.TTL <= 0 {
		return domainKeys{}, fmt.Errorf("%s token TTL must be positive", d)
	}
	keys := domainKeys{ttl: dc.TTL, audience: d.String()}

	switch method {
	case MethodHS256:
		if len(dc.Secret) == 0 {
			return domainKeys{}, fmt.Errorf("%s signing secret required", d)
		}
		secret := append([]byte(nil), dc.Secret...)
		keys.sign = secret
		keys.verify = secret
	case MethodEd25519:
		if len(dc.PrivateKey) == 0 {
			return domainKeys{}, fmt.Errorf("%s ed25519 private key required", d)
		}
		priv, err := parseEdPrivateKey(dc.PrivateKey)
		if err != nil {
			return domainKeys{}, fmt.Errorf("%s: %w", d, err)
		}
		pub := priv.Public().(ed25519.PublicKey)
		if len(dc.PublicKey) > 0 {
			pub, err = parseEdPublicKey(dc.PublicKey)
			if err != nil {
				return domainKeys{}, fmt.Errorf("%s: %w", d, err)
			}
		}
		keys.sign = priv
		keys.verify = pub
	}

	return keys, nil
}

// TTL reports the configured lifetime of tokens in domain d.
func (i *Issuer) TTL(d Domain) time.Duration {
	if i == nil || int(d) >= len(i.domains) {
		return 0
	}
	return i.domains[d].ttl
}

// IssueAccess signs an access token asserting name.
func (i *Issuer) IssueAccess(name string) (string, error) {
	return i.issue(DomainAccess, name)
}

// IssueRefresh signs a refresh token asserting name.
func (i *Issuer) IssueRefresh(name string) (string, error) {
	return i.issue(DomainRefresh, name)
}

func (i *Issuer) issue(d Domain, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("token name claim required")
	}
	keys := i.domains[d]
	now := i.now()

	// jti makes every token distinct even when two are minted in the same second.
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{keys.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(keys.ttl)),
		},
	}

	return jwt.NewWithClaims(i.method, claims).SignedString(keys.sign)
}

// Verify checks tokenStr against domain d. Claims are returned only for OutcomeValid.
// OutcomeExpired is reported only for tokens whose signature verified.
func (i *Issuer) Verify(d Domain, tokenStr string) (*Claims, Outcome) {
	if i == nil || int(d) >= len(i.domains) || tokenStr == "" {
		return nil, OutcomeInvalid
	}
	keys := i.domains[d]

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithAudience(keys.audience),
		jwt.WithTimeFunc(i.now),
	}
	if i.leeway > 0 {
		options = append(options, jwt.WithLeeway(i.leeway))
	}
	if i.issuer != "" {
		options = append(options, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != i.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return keys.verify, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, OutcomeExpired
		}
		return nil, OutcomeInvalid
	}
	if !token.Valid {
		return nil, OutcomeInvalid
	}
	if claims.Name == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, OutcomeInvalid
	}
	if claims.IssuedAt.Time.After(i.now().Add(i.maxFutureIAT)) {
		return nil, OutcomeInvalid
	}

	return claims, OutcomeValid
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
