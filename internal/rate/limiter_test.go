package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, ipThrottle bool) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return New(rdb, Config{MaxLoginAttempts: 3, Window: time.Minute, EnableIPThrottle: ipThrottle}), mr
}

func TestLimiterBlocksAfterBudget(t *testing.T) {
	l, _ := newLimiterTest(t, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckLogin(ctx, "a@b.io", ""); err != nil {
			t.Fatalf("attempt %d: unexpected %v", i, err)
		}
		if err := l.RecordFailure(ctx, "a@b.io", ""); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	if err := l.CheckLogin(ctx, "a@b.io", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	// other accounts are unaffected
	if err := l.CheckLogin(ctx, "c@d.io", ""); err != nil {
		t.Fatalf("other account limited: %v", err)
	}
}

func TestLimiterWindowExpires(t *testing.T) {
	l, mr := newLimiterTest(t, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = l.RecordFailure(ctx, "a@b.io", "")
	}
	if ttl := mr.TTL("login_attempts:user:a@b.io"); ttl != time.Minute {
		t.Fatalf("window ttl = %v, want 1m", ttl)
	}
	mr.FastForward(time.Minute + time.Second)
	if err := l.CheckLogin(ctx, "a@b.io", ""); err != nil {
		t.Fatalf("expected window to reset, got %v", err)
	}
}

func TestLimiterResetAndIPThrottle(t *testing.T) {
	l, mr := newLimiterTest(t, true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = l.RecordFailure(ctx, "a@b.io", "10.0.0.1")
	}
	if err := l.Reset(ctx, "a@b.io"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if mr.Exists("login_attempts:user:a@b.io") {
		t.Fatal("account counter survived reset")
	}
	if !mr.Exists("login_attempts:ip:10.0.0.1") {
		t.Fatal("address counter missing")
	}
	// the address budget survives the account reset
	if err := l.CheckLogin(ctx, "other@b.io", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ip throttle, got %v", err)
	}
}

func TestLimiterRedisDown(t *testing.T) {
	l, mr := newLimiterTest(t, false)
	mr.Close()
	if err := l.RecordFailure(context.Background(), "a@b.io", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
