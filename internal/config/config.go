// Package config loads the service configuration.
//
// Sources, highest priority first:
//  1. environment variables (a .env file in the working directory is loaded
//     into the environment first, without overriding what is already set);
//  2. the YAML file given by --config or CONFIG_PATH;
//  3. ./local.yaml, when present;
//  4. env-default tags.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/cartauth"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Ops      OpsConfig      `yaml:"ops"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
	Redis    RedisConfig    `yaml:"redis"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Auth     AuthConfig     `yaml:"auth"`
	Cookie   CookieConfig   `yaml:"cookie"`
	Password PasswordConfig `yaml:"password"`
	Limits   LimitsConfig   `yaml:"limits"`
	Audit    AuditConfig    `yaml:"audit"`
	OTel     OTelConfig     `yaml:"otel"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// HTTPConfig is the public API listener.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"PORT" env-default:"5000"`
	// TrustedProxies are CIDRs or bare addresses of reverse proxies whose
	// X-Forwarded-For header is believed.
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:","`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// Proxies parses TrustedProxies. A bare address becomes a single-host prefix.
func (h HTTPConfig) Proxies() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(h.TrustedProxies))
	for _, raw := range h.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("config: bad TRUSTED_PROXIES entry %q: %w", raw, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("config: bad TRUSTED_PROXIES entry %q: %w", raw, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// OpsConfig is the listener for /livez, /healthz and /metrics.
type OpsConfig struct {
	Host string `yaml:"host" env:"OPS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"OPS_PORT" env-default:"9090"`
}

func (o OpsConfig) Addr() string { return net.JoinHostPort(o.Host, o.Port) }

type TimeoutConfig struct {
	Request  time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"15s"`
	Shutdown time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type RedisConfig struct {
	URL              string        `yaml:"url" env:"REDIS_URL" env-required:"true"`
	OperationTimeout time.Duration `yaml:"operation_timeout" env:"REDIS_OP_TIMEOUT" env-default:"3s"`
}

type MongoConfig struct {
	URI string `yaml:"uri" env:"MONGO_URI" env-required:"true"`
}

type AuthConfig struct {
	AccessSecret  string        `yaml:"access_secret" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	RefreshSecret string        `yaml:"refresh_secret" env:"REFRESH_TOKEN_SECRET" env-required:"true"`
	AccessTTL     time.Duration `yaml:"access_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	Issuer        string        `yaml:"issuer" env:"JWT_ISSUER"`
	KeyPrefix     string        `yaml:"key_prefix" env:"REFRESH_KEY_PREFIX" env-default:"refresh_token"`
	ReuseWindow   time.Duration `yaml:"reuse_window" env:"REFRESH_REUSE_WINDOW" env-default:"24h"`
}

type CookieConfig struct {
	Secure   bool   `yaml:"secure" env:"COOKIE_SECURE" env-default:"true"`
	Domain   string `yaml:"domain" env:"COOKIE_DOMAIN"`
	SameSite string `yaml:"same_site" env:"COOKIE_SAMESITE" env-default:"strict"`
}

// PasswordConfig tunes the legacy bcrypt verifier; new hashes are Argon2id.
type PasswordConfig struct {
	SaltWorkFactor int `yaml:"salt_work_factor" env:"SALT_WORK_FACTOR" env-default:"10"`
}

// LimitsConfig throttles failed logins.
type LimitsConfig struct {
	Enabled          bool          `yaml:"enabled" env:"LOGIN_RATE_LIMIT_ENABLED" env-default:"true"`
	MaxLoginAttempts int           `yaml:"max_login_attempts" env:"LOGIN_MAX_ATTEMPTS" env-default:"5"`
	Window           time.Duration `yaml:"window" env:"LOGIN_ATTEMPT_WINDOW" env-default:"15m"`
	PerIP            bool          `yaml:"per_ip" env:"LOGIN_RATE_LIMIT_PER_IP" env-default:"true"`
}

type AuditConfig struct {
	Enabled    bool `yaml:"enabled" env:"AUDIT_ENABLED" env-default:"true"`
	BufferSize int  `yaml:"buffer_size" env:"AUDIT_BUFFER_SIZE" env-default:"1024"`
}

// OTelConfig enables OTLP/HTTP metric push. The collector endpoint and headers
// come from the standard OTEL_EXPORTER_OTLP_* variables.
type OTelConfig struct {
	Enabled  bool          `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Interval time.Duration `yaml:"interval" env:"OTEL_EXPORT_INTERVAL" env-default:"30s"`
}

// MustLoad panics on any load or validation error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads and validates the configuration. Missing secrets or backend URLs
// are errors.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat("local.yaml"); err == nil {
			path = "local.yaml"
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "":
		return errors.New("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	case c.Auth.AccessSecret == c.Auth.RefreshSecret:
		return errors.New("config: access and refresh secrets must differ")
	case c.Redis.URL == "":
		return errors.New("config: REDIS_URL is required")
	case c.Mongo.URI == "":
		return errors.New("config: MONGO_URI is required")
	}
	if _, err := parseSameSite(c.Cookie.SameSite); err != nil {
		return err
	}
	if _, err := c.HTTP.Proxies(); err != nil {
		return err
	}
	if c.OTel.Enabled && c.OTel.Interval <= 0 {
		return errors.New("config: OTEL_EXPORT_INTERVAL must be > 0")
	}
	return nil
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(v) {
	case "", "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("config: unknown COOKIE_SAMESITE %q", v)
	}
}

// Engine converts the loaded settings into a cartauth.Config.
func (c *Config) Engine() cartauth.Config {
	out := cartauth.DefaultConfig()

	out.JWT.AccessSecret = []byte(c.Auth.AccessSecret)
	out.JWT.RefreshSecret = []byte(c.Auth.RefreshSecret)
	out.JWT.AccessTTL = c.Auth.AccessTTL
	out.JWT.RefreshTTL = c.Auth.RefreshTTL
	out.JWT.Issuer = c.Auth.Issuer

	out.Store.KeyPrefix = c.Auth.KeyPrefix
	out.Store.OperationTimeout = c.Redis.OperationTimeout
	out.Store.ReuseWindow = c.Auth.ReuseWindow

	out.Cookie.Secure = c.Cookie.Secure
	out.Cookie.Domain = c.Cookie.Domain
	out.Cookie.SameSite, _ = parseSameSite(c.Cookie.SameSite)

	out.RateLimit.Enabled = c.Limits.Enabled
	out.RateLimit.MaxLoginAttempts = c.Limits.MaxLoginAttempts
	out.RateLimit.Window = c.Limits.Window
	out.RateLimit.EnableIPThrottle = c.Limits.PerIP

	out.Audit.Enabled = c.Audit.Enabled
	out.Audit.BufferSize = c.Audit.BufferSize
	return out
}
