package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis transport failure, including timeouts.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrNotFound is returned when an identity has no stored refresh credential.
var ErrNotFound = errors.New("refresh credential not found")

// ErrMismatch is returned by Rotate when the presented digest is not the stored one.
var ErrMismatch = errors.New("refresh credential mismatch")

// DefaultOperationTimeout bounds a single store call when the caller's context has no earlier deadline.
const DefaultOperationTimeout = 3 * time.Second

const (
	rotateStatusNotFound int64 = 0
	rotateStatusMismatch int64 = 1
	rotateStatusRotated  int64 = 2
)

// KEYS[1] entry key; ARGV[1] presented digest, ARGV[2] next digest, ARGV[3] ttl in ms.
const rotateScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 1
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 2
`

var rotateLua = redis.NewScript(rotateScript)

// Store is a Redis-backed credential store keyed by user identity.
type Store struct {
	redis     redis.UniversalClient
	prefix    string
	opTimeout time.Duration
}

// NewStore creates a [Store] backed by the given Redis client. prefix sets the
// key namespace; opTimeout bounds each call (zero selects DefaultOperationTimeout).
func NewStore(rdb redis.UniversalClient, prefix string, opTimeout time.Duration) *Store {
	if prefix == "" {
		prefix = "refresh_token"
	}
	if opTimeout <= 0 {
		opTimeout = DefaultOperationTimeout
	}
	return &Store{
		redis:     rdb,
		prefix:    prefix,
		opTimeout: opTimeout,
	}
}

func (s *Store) key(userID string) string {
	return s.prefix + ":" + userID
}

func (s *Store) reuseKey(userID string) string {
	return s.prefix + ":reuse:" + userID
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// Put stores digest as the current refresh credential for userID, replacing any
// previous one.
//
//	Performance: 1 Redis SET.
func (s *Store) Put(ctx context.Context, userID, digest string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session: invalid ttl %s", ttl)
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.redis.Set(ctx, s.key(userID), digest, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the stored credential for userID, or ErrNotFound.
//
//	Performance: 1 pipelined round trip (GET + PTTL).
func (s *Store) Get(ctx context.Context, userID string) (*Entry, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	key := s.key(userID)
	var (
		getCmd *redis.StringCmd
		ttlCmd *redis.DurationCmd
	)
	_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		getCmd = pipe.Get(ctx, key)
		ttlCmd = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	digest, err := getCmd.Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return &Entry{UserID: userID, Digest: digest, TTL: ttlCmd.Val()}, nil
}

// Delete removes the credential for userID. Deleting a missing entry is not an error.
func (s *Store) Delete(ctx context.Context, userID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Rotate atomically replaces the stored digest with next, but only when the
// stored digest equals presented. On mismatch the entry is left untouched.
//
//	Performance: 1 Lua EVALSHA (atomic compare-and-swap).
//	Security: concurrent renewals with the same token produce exactly one winner.
func (s *Store) Rotate(ctx context.Context, userID, presented, next string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session: invalid ttl %s", ttl)
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	code, err := rotateLua.Run(
		ctx,
		s.redis,
		[]string{s.key(userID)},
		presented,
		next,
		ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch code {
	case rotateStatusNotFound:
		return ErrNotFound
	case rotateStatusMismatch:
		return ErrMismatch
	case rotateStatusRotated:
		return nil
	default:
		return fmt.Errorf("%w: unknown rotate script status %d", ErrRedisUnavailable, code)
	}
}

// TrackReuse counts a superseded-token presentation for userID and returns the
// number seen inside the current window.
func (s *Store) TrackReuse(ctx context.Context, userID string, window time.Duration) (int64, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	key := s.reuseKey(userID)
	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count == 1 {
		if err := s.redis.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
