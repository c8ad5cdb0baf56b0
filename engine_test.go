package cartauth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/cartauth"
	"github.com/MrEthical07/cartauth/internal/userstore/memory"
	"github.com/MrEthical07/cartauth/password"
	"github.com/MrEthical07/cartauth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type engineHarness struct {
	engine *cartauth.Engine
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	users  *memory.Store
	clock  *testClock
	audit  *cartauth.ChannelSink
}

// advance moves both the token clock and the Redis clock.
func (h *engineHarness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.mr.FastForward(d)
}

func testConfig() cartauth.Config {
	cfg := cartauth.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("access-secret-for-tests-0123456789")
	cfg.JWT.RefreshSecret = []byte("refresh-secret-for-tests-987654321")
	return cfg
}

func newHarness(t *testing.T) *engineHarness {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	primary, err := password.NewArgon2(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("argon2: %v", err)
	}
	hasher, err := password.NewMulti(primary, nil)
	if err != nil {
		t.Fatalf("multi: %v", err)
	}

	h := &engineHarness{
		mr:    mr,
		rdb:   rdb,
		users: memory.New(hasher),
		clock: &testClock{now: time.Now()},
		audit: cartauth.NewChannelSink(256),
	}

	h.engine, err = cartauth.New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserProvider(h.users).
		WithAuditSink(h.audit).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithClock(h.clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	t.Cleanup(func() {
		h.engine.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return h
}

func (h *engineHarness) signup(t *testing.T, email string) *cartauth.AuthResult {
	t.Helper()
	res, err := h.engine.Signup(context.Background(), cartauth.SignupRequest{
		Name:     "Test User",
		Email:    email,
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Signup(%s): %v", email, err)
	}
	return res
}

func TestSignupCreatesCustomerAndSession(t *testing.T) {
	h := newHarness(t)

	res := h.signup(t, "  Ann@Example.COM ")
	if res.User.Email != "ann@example.com" {
		t.Fatalf("email not normalized: %q", res.User.Email)
	}
	if res.User.Role != cartauth.RoleCustomer {
		t.Fatalf("role = %q, want customer", res.User.Role)
	}
	if res.AccessToken.Value == "" || res.RefreshToken.Value == "" {
		t.Fatalf("expected both tokens")
	}
	if got := res.AccessToken.ExpiresAt.Sub(h.clock.Now()); got != 15*time.Minute {
		t.Fatalf("access ttl = %v", got)
	}
	if got := res.RefreshToken.ExpiresAt.Sub(h.clock.Now()); got != 7*24*time.Hour {
		t.Fatalf("refresh ttl = %v", got)
	}

	stored, err := h.mr.Get("refresh_token:" + res.User.ID)
	if err != nil {
		t.Fatalf("stored entry missing: %v", err)
	}
	if stored != session.Digest(res.RefreshToken.Value) {
		t.Fatalf("stored value is not the refresh token digest")
	}
	if ttl := h.mr.TTL("refresh_token:" + res.User.ID); ttl != 7*24*time.Hour {
		t.Fatalf("entry ttl = %v", ttl)
	}
}

func TestSignupDuplicateAndInvalid(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "ann@example.com")

	_, err := h.engine.Signup(ctx, cartauth.SignupRequest{Name: "Ann", Email: "ANN@example.com", Password: "secret1"})
	if !errors.Is(err, cartauth.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	bad := []cartauth.SignupRequest{
		{Name: "", Email: "a@b.io", Password: "secret1"},
		{Name: "A", Email: "not-an-email", Password: "secret1"},
		{Name: "A", Email: "a@b.io", Password: "short"},
	}
	for _, req := range bad {
		if _, err := h.engine.Signup(ctx, req); !errors.Is(err, cartauth.ErrInvalidSignup) {
			t.Fatalf("Signup(%+v): expected ErrInvalidSignup, got %v", req, err)
		}
	}
}

func TestLoginReplacesPreviousSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.signup(t, "ann@example.com")

	second, err := h.engine.Login(ctx, "ann@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Fatalf("login resolved a different identity")
	}
	if len(h.mr.Keys()) != 1 {
		t.Fatalf("expected exactly one stored entry, got %v", h.mr.Keys())
	}

	// the refresh token from signup no longer matches the stored credential
	if _, err := h.engine.RenewAccess(ctx, first.RefreshToken.Value); !errors.Is(err, cartauth.ErrRefreshReuse) {
		t.Fatalf("expected ErrRefreshReuse for superseded token, got %v", err)
	}
	if _, err := h.engine.RenewAccess(ctx, second.RefreshToken.Value); err != nil {
		t.Fatalf("RenewAccess with current token: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "ann@example.com")

	if _, err := h.engine.Login(ctx, "ann@example.com", "wrong-pass"); !errors.Is(err, cartauth.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := h.engine.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, cartauth.ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v", err)
	}
	if _, err := h.engine.Login(ctx, "ann@example.com", "wrong-pass"); !errors.Is(err, cartauth.ErrUnauthorized) {
		t.Fatalf("invalid credentials must wrap ErrUnauthorized")
	}
}

func TestLoginRateLimitedAfterFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "ann@example.com")

	for i := 0; i < 5; i++ {
		if _, err := h.engine.Login(ctx, "ann@example.com", "wrong-pass"); !errors.Is(err, cartauth.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v", i, err)
		}
	}
	// even the right password is refused until the window passes
	_, err := h.engine.Login(ctx, "ANN@example.com", "secret1")
	if !errors.Is(err, cartauth.ErrLoginRateLimited) || errors.Is(err, cartauth.ErrUnauthorized) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}
	if got := h.engine.MetricsSnapshot().Counters[cartauth.MetricLoginRateLimited]; got != 1 {
		t.Fatalf("rate limited metric = %d, want 1", got)
	}

	h.mr.FastForward(15*time.Minute + time.Second)
	if _, err := h.engine.Login(ctx, "ann@example.com", "secret1"); err != nil {
		t.Fatalf("login after window: %v", err)
	}
	if h.mr.Exists("login_attempts:user:ann@example.com") {
		t.Fatal("successful login must clear the account counter")
	}
}

func TestRenewAccessRotates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r1 := h.signup(t, "ann@example.com")

	h.advance(time.Minute)
	r2, err := h.engine.RenewAccess(ctx, r1.RefreshToken.Value)
	if err != nil {
		t.Fatalf("RenewAccess(R1): %v", err)
	}
	if r2.User.ID != r1.User.ID {
		t.Fatalf("renewal changed identity")
	}
	if r2.RefreshToken.Value == r1.RefreshToken.Value {
		t.Fatalf("refresh token was not rotated")
	}
	stored, _ := h.mr.Get("refresh_token:" + r1.User.ID)
	if stored != session.Digest(r2.RefreshToken.Value) {
		t.Fatalf("store does not hold R2")
	}

	if _, err := h.engine.RenewAccess(ctx, r1.RefreshToken.Value); !errors.Is(err, cartauth.ErrRefreshReuse) {
		t.Fatalf("R1 replay: expected ErrRefreshReuse, got %v", err)
	}
	// replaying R1 must not burn R2
	r3, err := h.engine.RenewAccess(ctx, r2.RefreshToken.Value)
	if err != nil {
		t.Fatalf("RenewAccess(R2) after replay: %v", err)
	}
	if _, err := h.engine.VerifyAccess(ctx, r3.AccessToken.Value); err != nil {
		t.Fatalf("renewed access token rejected: %v", err)
	}

	if n, _ := h.rdb.Get(ctx, "refresh_token:reuse:"+r1.User.ID).Int64(); n != 1 {
		t.Fatalf("reuse counter = %d, want 1", n)
	}
	if got := h.engine.MetricsSnapshot().Counters[cartauth.MetricRefreshReuseDetected]; got != 1 {
		t.Fatalf("reuse metric = %d, want 1", got)
	}
}

func TestRenewAccessConcurrentSingleWinner(t *testing.T) {
	h := newHarness(t)
	r1 := h.signup(t, "ann@example.com")

	const workers = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.engine.RenewAccess(context.Background(), r1.RefreshToken.Value); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			} else if !errors.Is(err, cartauth.ErrRefreshReuse) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("successful renewals = %d, want 1", success)
	}
}

func TestRenewAccessFailureKinds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r1 := h.signup(t, "ann@example.com")

	if _, err := h.engine.RenewAccess(ctx, ""); !errors.Is(err, cartauth.ErrRefreshMissing) {
		t.Fatalf("empty: got %v", err)
	}
	if _, err := h.engine.RenewAccess(ctx, "garbage"); !errors.Is(err, cartauth.ErrRefreshInvalid) {
		t.Fatalf("garbage: got %v", err)
	}
	// an access token is signed with the other secret
	if _, err := h.engine.RenewAccess(ctx, r1.AccessToken.Value); !errors.Is(err, cartauth.ErrRefreshInvalid) {
		t.Fatalf("access token as refresh: got %v", err)
	}

	h.advance(7*24*time.Hour + time.Second)
	if _, err := h.engine.RenewAccess(ctx, r1.RefreshToken.Value); !errors.Is(err, cartauth.ErrRefreshExpired) {
		t.Fatalf("expired: got %v", err)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r1 := h.signup(t, "ann@example.com")

	if err := h.engine.Logout(ctx, r1.RefreshToken.Value); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(h.mr.Keys()) != 0 {
		t.Fatalf("entry survived logout: %v", h.mr.Keys())
	}
	if _, err := h.engine.RenewAccess(ctx, r1.RefreshToken.Value); !errors.Is(err, cartauth.ErrSessionNotFound) {
		t.Fatalf("renew after logout: got %v", err)
	}

	// idempotent, and tolerant of junk
	if err := h.engine.Logout(ctx, r1.RefreshToken.Value); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if err := h.engine.Logout(ctx, ""); err != nil {
		t.Fatalf("Logout without token: %v", err)
	}
	if err := h.engine.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("Logout with junk: %v", err)
	}
}

func TestRevokeSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r1 := h.signup(t, "ann@example.com")

	if err := h.engine.RevokeSessions(ctx, r1.User.ID); err != nil {
		t.Fatalf("RevokeSessions: %v", err)
	}
	if _, err := h.engine.RenewAccess(ctx, r1.RefreshToken.Value); !errors.Is(err, cartauth.ErrSessionNotFound) {
		t.Fatalf("renew after revoke: got %v", err)
	}
	// access tokens stay valid until they expire
	if _, err := h.engine.VerifyAccess(ctx, r1.AccessToken.Value); err != nil {
		t.Fatalf("VerifyAccess after revoke: %v", err)
	}
}

func TestVerifyAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r1 := h.signup(t, "ann@example.com")

	user, err := h.engine.VerifyAccess(ctx, r1.AccessToken.Value)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if user.ID != r1.User.ID || user.Email != "ann@example.com" {
		t.Fatalf("unexpected caller: %+v", user)
	}

	if _, err := h.engine.VerifyAccess(ctx, ""); !errors.Is(err, cartauth.ErrTokenMissing) {
		t.Fatalf("empty: got %v", err)
	}
	if _, err := h.engine.VerifyAccess(ctx, r1.RefreshToken.Value); !errors.Is(err, cartauth.ErrTokenInvalid) {
		t.Fatalf("refresh token as access: got %v", err)
	}

	h.users.Delete(r1.User.ID)
	if _, err := h.engine.VerifyAccess(ctx, r1.AccessToken.Value); !errors.Is(err, cartauth.ErrCallerUnknown) {
		t.Fatalf("deleted user: got %v", err)
	}

	h.advance(15*time.Minute + time.Second)
	if _, err := h.engine.VerifyAccess(ctx, r1.AccessToken.Value); !errors.Is(err, cartauth.ErrTokenExpired) {
		t.Fatalf("expired: got %v", err)
	}
}

func TestAuthorizeAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	customer := &cartauth.UserRecord{ID: "c1", Role: cartauth.RoleCustomer}
	admin := &cartauth.UserRecord{ID: "a1", Role: cartauth.RoleAdmin}

	if err := h.engine.AuthorizeAdmin(ctx, admin); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
	for _, u := range []*cartauth.UserRecord{customer, nil} {
		err := h.engine.AuthorizeAdmin(ctx, u)
		if !errors.Is(err, cartauth.ErrAdminOnly) || !errors.Is(err, cartauth.ErrForbidden) {
			t.Fatalf("AuthorizeAdmin(%v) = %v", u, err)
		}
	}
}

func TestStoreOutageIsServerFault(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r1 := h.signup(t, "ann@example.com")

	h.mr.Close()

	_, err := h.engine.Login(ctx, "ann@example.com", "secret1")
	if !errors.Is(err, cartauth.ErrStoreUnavailable) || errors.Is(err, cartauth.ErrUnauthorized) {
		t.Fatalf("Login during outage: %v", err)
	}
	_, err = h.engine.RenewAccess(ctx, r1.RefreshToken.Value)
	if !errors.Is(err, cartauth.ErrStoreUnavailable) || errors.Is(err, cartauth.ErrUnauthorized) {
		t.Fatalf("RenewAccess during outage: %v", err)
	}
	if err := h.engine.Logout(ctx, r1.RefreshToken.Value); !errors.Is(err, cartauth.ErrStoreUnavailable) {
		t.Fatalf("Logout during outage: %v", err)
	}
	if _, err := h.engine.Ping(ctx); !errors.Is(err, cartauth.ErrStoreUnavailable) {
		t.Fatalf("Ping during outage: %v", err)
	}
	// verification does not touch Redis
	if _, err := h.engine.VerifyAccess(ctx, r1.AccessToken.Value); err != nil {
		t.Fatalf("VerifyAccess during outage: %v", err)
	}
}

func TestAuditEventsCarryRequestContext(t *testing.T) {
	h := newHarness(t)
	ctx := cartauth.WithRequestID(cartauth.WithClientIP(context.Background(), "10.0.0.7"), "req-1")

	if _, err := h.engine.Login(ctx, "nobody@example.com", "secret1"); err == nil {
		t.Fatalf("expected login failure")
	}

	select {
	case ev := <-h.audit.Events():
		if ev.EventType != "login_failure" || ev.Success {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if ev.RequestID != "req-1" || ev.IP != "10.0.0.7" || ev.Error != "invalid_credentials" {
			t.Fatalf("event missing request context: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no audit event emitted")
	}
}

func TestBuildRequiresCollaborators(t *testing.T) {
	if _, err := cartauth.New().WithConfig(testConfig()).WithUserProvider(memory.New(nil)).Build(); !errors.Is(err, cartauth.ErrInvalidConfig) {
		t.Fatalf("missing redis: got %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()
	if _, err := cartauth.New().WithConfig(testConfig()).WithRedis(rdb).Build(); !errors.Is(err, cartauth.ErrInvalidConfig) {
		t.Fatalf("missing provider: got %v", err)
	}
	if _, err := cartauth.New().WithRedis(rdb).WithUserProvider(memory.New(nil)).Build(); !errors.Is(err, cartauth.ErrInvalidConfig) {
		t.Fatalf("missing secrets: got %v", err)
	}

	b := cartauth.New().WithConfig(testConfig()).WithRedis(rdb).WithUserProvider(memory.New(nil))
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatalf("builder reuse must fail")
	}
}

func TestNilEngine(t *testing.T) {
	var e *cartauth.Engine
	if _, err := e.Login(context.Background(), "a@b.io", "secret1"); !errors.Is(err, cartauth.ErrEngineNotReady) {
		t.Fatalf("got %v", err)
	}
	if _, err := e.VerifyAccess(context.Background(), "x"); !errors.Is(err, cartauth.ErrEngineNotReady) {
		t.Fatalf("got %v", err)
	}
}
