package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRateLimited is returned once a counter exceeds its budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis transport failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Config holds limiter tuning parameters.
type Config struct {
	Prefix           string
	MaxLoginAttempts int
	Window           time.Duration
	EnableIPThrottle bool
	OperationTimeout time.Duration
}

// Limiter enforces per-account and per-IP failed-login budgets.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Limiter backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "login_attempts"
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 3 * time.Second
	}
	return &Limiter{redis: redisClient, config: cfg}
}

func (l *Limiter) userKey(email string) string { return l.config.Prefix + ":user:" + email }
func (l *Limiter) ipKey(ip string) string { return l.config.Prefix + ":ip:" + ip }

// CheckLogin returns ErrRateLimited when either the account or the address has
// used up its budget in the current window.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	ctx, cancel := context.WithTimeout(ctx, l.config.OperationTimeout)
	defer cancel()

	if err := l.checkCounter(ctx, l.userKey(email)); err != nil {
		return err
	}
	if l.config.EnableIPThrottle && ip != "" {
		return l.checkCounter(ctx, l.ipKey(ip))
	}
	return nil
}

// RecordFailure counts one failed login for the account and address.
func (l *Limiter) RecordFailure(ctx context.Context, email, ip string) error {
	ctx, cancel := context.WithTimeout(ctx, l.config.OperationTimeout)
	defer cancel()

	if _, err := l.incrementWithTTL(ctx, l.userKey(email)); err != nil {
		return err
	}
	if l.config.EnableIPThrottle && ip != "" {
		if _, err := l.incrementWithTTL(ctx, l.ipKey(ip)); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the account counter after a successful login. The address
// counter is kept so one valid account cannot launder guesses for others.
func (l *Limiter) Reset(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, l.config.OperationTimeout)
	defer cancel()

	if err := l.redis.Del(ctx, l.userKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	// fixed window: TTL only on the first hit
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}
