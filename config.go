package cartauth

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config is the complete Engine configuration. Build it once at startup (see
// internal/config for the file and environment loader) and pass it to
// [Builder.WithConfig].
type Config struct {
	JWT       JWTConfig
	Store     StoreConfig
	Cookie    CookieConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// JWTConfig holds the token codec settings. Both secrets are required and must differ.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// StoreConfig holds credential store settings.
type StoreConfig struct {
	// KeyPrefix namespaces entries as <prefix>:<userID>.
	KeyPrefix string
	// OperationTimeout bounds each Redis call.
	OperationTimeout time.Duration
	// ReuseWindow is how long superseded-token presentations are counted per identity.
	ReuseWindow time.Duration
}

// CookieConfig describes the session cookies written by the HTTP layer.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Path        string
	Domain      string
	Secure      bool
	SameSite    http.SameSite
}

// RateLimitConfig throttles failed logins per account and, optionally, per
// client address. Counters live in the same Redis as the credential store.
type RateLimitConfig struct {
	Enabled          bool
	KeyPrefix        string
	MaxLoginAttempts int
	Window           time.Duration
	EnableIPThrottle bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters and the access-verification latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns every setting except the two secrets.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			KeyPrefix:        "refresh_token",
			OperationTimeout: 3 * time.Second,
			ReuseWindow:      24 * time.Hour,
		},
		Cookie: CookieConfig{
			AccessName:  "accessToken",
			RefreshName: "refreshToken",
			Path:        "/",
			Secure:      true,
			SameSite:    http.SameSiteStrictMode,
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			KeyPrefix:        "login_attempts",
			MaxLoginAttempts: 5,
			Window:           15 * time.Minute,
			EnableIPThrottle: true,
		},
		Audit: AuditConfig{
			Enabled:    true,
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
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first setting that would make the Engine unsafe or unusable.
// Every error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.AccessSecret) == 0 {
		return fmt.Errorf("%w: JWT AccessSecret is required", ErrInvalidConfig)
	}
	if len(c.JWT.RefreshSecret) == 0 {
		return fmt.Errorf("%w: JWT RefreshSecret is required", ErrInvalidConfig)
	}
	if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
		return fmt.Errorf("%w: JWT AccessSecret and RefreshSecret must differ", ErrInvalidConfig)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("%w: JWT AccessTTL must be > 0", ErrInvalidConfig)
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return fmt.Errorf("%w: JWT RefreshTTL must exceed AccessTTL", ErrInvalidConfig)
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return fmt.Errorf("%w: JWT Leeway must be within [0, 2m]", ErrInvalidConfig)
	}

	// Store
	if strings.TrimSpace(c.Store.KeyPrefix) == "" || strings.Contains(c.Store.KeyPrefix, " ") {
		return fmt.Errorf("%w: Store KeyPrefix must be a non-empty token", ErrInvalidConfig)
	}
	if c.Store.OperationTimeout <= 0 || c.Store.OperationTimeout > 30*time.Second {
		return fmt.Errorf("%w: Store OperationTimeout must be within (0, 30s]", ErrInvalidConfig)
	}
	if c.Store.ReuseWindow < 0 {
		return fmt.Errorf("%w: Store ReuseWindow must be >= 0", ErrInvalidConfig)
	}

	// Cookie
	if c.Cookie.AccessName == "" || c.Cookie.RefreshName == "" {
		return fmt.Errorf("%w: Cookie names are required", ErrInvalidConfig)
	}
	if c.Cookie.AccessName == c.Cookie.RefreshName {
		return fmt.Errorf("%w: Cookie names must differ", ErrInvalidConfig)
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return fmt.Errorf("%w: SameSite=None cookies must be Secure", ErrInvalidConfig)
	}

	// RateLimit
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLoginAttempts <= 0 {
			return fmt.Errorf("%w: RateLimit MaxLoginAttempts must be > 0", ErrInvalidConfig)
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("%w: RateLimit Window must be > 0", ErrInvalidConfig)
		}
		if strings.TrimSpace(c.RateLimit.KeyPrefix) == "" || c.RateLimit.KeyPrefix == c.Store.KeyPrefix {
			return fmt.Errorf("%w: RateLimit KeyPrefix must be set and differ from Store KeyPrefix", ErrInvalidConfig)
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: Audit BufferSize must be > 0 when enabled", ErrInvalidConfig)
	}

	return nil
}
