package cartauth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/cartauth/internal/audit"
	"github.com/MrEthical07/cartauth/internal/rate"
	"github.com/MrEthical07/cartauth/jwt"
	"github.com/MrEthical07/cartauth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userProvider UserProvider
	auditSink    AuditSink
	logger       *slog.Logger
	now          func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the credential store client. Any go-redis client works
// (single node, cluster, sentinel failover).
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithAuditSink sets where audit events go. Without one, events are logged
// through the Engine logger.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the token clock. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
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

// Build validates the configuration and returns a ready Engine. Missing secrets,
// a missing Redis client or a missing user provider are startup-fatal.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client required", ErrInvalidConfig)
	}
	if b.userProvider == nil {
		return nil, fmt.Errorf("%w: user provider required", ErrInvalidConfig)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "cartauth"))

	codec, err := jwt.NewManager(jwt.Config{
		AccessSecret:  cloneBytes(cfg.JWT.AccessSecret),
		RefreshSecret: cloneBytes(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
		Now:           b.now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	sink := b.auditSink
	if sink == nil {
		sink = NewSlogSink(logger)
	}

	engine := &Engine{
		config:  cfg,
		store:   session.NewStore(b.redis, cfg.Store.KeyPrefix, cfg.Store.OperationTimeout),
		codec:   codec,
		users:   b.userProvider,
		metrics: newMetrics(cfg.Metrics),
		logger:  logger,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink),
	}

	if cfg.RateLimit.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			Prefix:           cfg.RateLimit.KeyPrefix,
			MaxLoginAttempts: cfg.RateLimit.MaxLoginAttempts,
			Window:           cfg.RateLimit.Window,
			EnableIPThrottle: cfg.RateLimit.EnableIPThrottle,
			OperationTimeout: cfg.Store.OperationTimeout,
		})
	}

	b.built = true
	return engine, nil
}
