package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects which secret and lifetime a token uses.
type Kind string

const (
	// KindAccess marks short-lived tokens presented on every protected request.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived tokens presented only to renew access.
	KindRefresh Kind = "refresh"
)

var (
	// ErrExpired is returned when a structurally valid token is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrInvalid is returned for bad signatures, malformed tokens, wrong kinds and missing claims.
	ErrInvalid = errors.New("token invalid")
	// ErrMisconfigured is returned by NewManager when secrets or lifetimes are unusable.
	ErrMisconfigured = errors.New("token codec misconfigured")
)

// Config defines a public type used by cartauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Claims is the signed payload carried by both token kinds.
type Claims struct {
	UserID string `json:"userId"`
	Kind   Kind   `json:"typ"`
	jwt.RegisteredClaims
}

// Token is a signed token string together with its absolute expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Manager signs and verifies access and refresh tokens.
//
// Manager instances are safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a ready Manager. A missing secret, a
// shared secret between the two kinds, or a non-positive lifetime is reported
// as ErrMisconfigured and should stop the process at startup.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, fmt.Errorf("%w: access secret is empty", ErrMisconfigured)
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("%w: refresh secret is empty", ErrMisconfigured)
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", ErrMisconfigured)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("%w: invalid TTL configuration", ErrMisconfigured)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, fmt.Errorf("%w: invalid leeway configuration", ErrMisconfigured)
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Manager{config: cfg}, nil
}

// TTL returns the configured lifetime for kind.
func (m *Manager) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return m.config.RefreshTTL
	}
	return m.config.AccessTTL
}

// Issue signs a new token of the given kind for userID.
//
// Every token carries a random jti, so two tokens issued for the same user in
// the same second are still distinct strings.
func (m *Manager) Issue(userID string, kind Kind) (Token, error) {
	secret, err := m.secret(kind)
	if err != nil {
		return Token{}, err
	}
	if userID == "" {
		return Token{}, fmt.Errorf("%w: empty user id", ErrInvalid)
	}

	now := m.config.Now()
	exp := now.Add(m.TTL(kind))
	claims := Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return Token{Value: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Verify checks signature, algorithm, kind and expiry of tokenStr.
//
// Expired tokens yield ErrExpired; every other rejection yields ErrInvalid.
func (m *Manager) Verify(tokenStr string, kind Kind) (*Claims, error) {
	secret, err := m.secret(kind)
	if err != nil {
		return nil, err
	}
	if tokenStr == "" {
		return nil, ErrInvalid
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.config.Now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalid, kind)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalid)
	}

	return claims, nil
}

func (m *Manager) secret(kind Kind) ([]byte, error) {
	switch kind {
	case KindAccess:
		return m.config.AccessSecret, nil
	case KindRefresh:
		return m.config.RefreshSecret, nil
	default:
		return nil, fmt.Errorf("%w: unknown token kind %q", ErrInvalid, kind)
	}
}
