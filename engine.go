package cartauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	internalaudit "github.com/MrEthical07/cartauth/internal/audit"
	internalflows "github.com/MrEthical07/cartauth/internal/flows"
	internalmetrics "github.com/MrEthical07/cartauth/internal/metrics"
	"github.com/MrEthical07/cartauth/internal/rate"
	"github.com/MrEthical07/cartauth/jwt"
	"github.com/MrEthical07/cartauth/password"
	"github.com/MrEthical07/cartauth/session"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Engine runs the session lifecycle. Build it with [New].
type Engine struct {
	config  Config
	store   *session.Store
	codec   *jwt.Manager
	users   UserProvider
	limiter *rate.Limiter
	audit   *internalaudit.Dispatcher
	metrics *internalmetrics.Metrics
	logger  *slog.Logger
}

// Close flushes pending audit events. The Redis client is owned by the caller.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return DefaultConfig()
	}
	return cloneConfig(e.config)
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the Engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Ping checks credential store availability.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.store == nil {
		return 0, ErrEngineNotReady
	}
	d, err := e.store.Ping(ctx)
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return d, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.store != nil && e.codec != nil && e.users != nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toFlowUser(u UserRecord) internalflows.User {
	return internalflows.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

func fromFlowUser(u internalflows.User) Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, Role: Role(u.Role)}
}

func authResult(u internalflows.User, pair internalflows.TokenPair) *AuthResult {
	return &AuthResult{
		User:         fromFlowUser(u),
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
	}
}

func (e *Engine) issueDeps() internalflows.IssueDeps {
	return internalflows.IssueDeps{
		Issue:      e.codec.Issue,
		Digest:     session.Digest,
		RefreshTTL: e.config.JWT.RefreshTTL,
	}
}

func (e *Engine) storeFault(ctx context.Context, op string, err error) error {
	e.metricInc(MetricStoreUnavailable)
	e.logger.ErrorContext(ctx, "credential store failure", slog.String("op", op), slog.Any("error", err))
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// Signup registers a customer account and starts its first session.
//
// The email is trimmed and lower-cased. A taken email yields ErrAccountExists;
// a malformed request yields ErrInvalidSignup.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validateSignup(req); err != nil {
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, auditEventSignupFailure, false, "", err, nil)
		return nil, err
	}

	res := internalflows.RunSignup(ctx, internalflows.SignupRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, e.signupFlowDeps())

	switch res.Failure {
	case internalflows.SignupFailureNone:
		e.metricInc(MetricSignupSuccess)
		e.emitAudit(ctx, auditEventSignupSuccess, true, res.User.ID, nil, nil)
		return authResult(res.User, res.Tokens), nil
	case internalflows.SignupFailureDuplicate:
		e.metricInc(MetricSignupDuplicate)
		e.emitAudit(ctx, auditEventSignupDuplicate, false, "", ErrAccountExists, nil)
		return nil, ErrAccountExists
	case internalflows.SignupFailureLookup, internalflows.SignupFailureCreate:
		e.metricInc(MetricSignupFailure)
		err := fmt.Errorf("%w: %v", ErrUserLookupFailed, res.Err)
		e.logger.ErrorContext(ctx, "signup user provider failure", slog.Any("error", res.Err))
		e.emitAudit(ctx, auditEventSignupFailure, false, "", err, nil)
		return nil, err
	case internalflows.SignupFailureStore:
		e.metricInc(MetricSignupFailure)
		err := e.storeFault(ctx, "signup", res.Err)
		e.emitAudit(ctx, auditEventSignupFailure, false, res.User.ID, err, nil)
		return nil, err
	default:
		e.metricInc(MetricSignupFailure)
		err := fmt.Errorf("%w: %v", ErrTokenIssue, res.Err)
		e.emitAudit(ctx, auditEventSignupFailure, false, res.User.ID, err, nil)
		return nil, err
	}
}

func validateSignup(req SignupRequest) error {
	switch {
	case req.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidSignup)
	case !emailPattern.MatchString(req.Email):
		return fmt.Errorf("%w: email is invalid", ErrInvalidSignup)
	case len(req.Password) < password.MinLength:
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidSignup, password.MinLength)
	}
	return nil
}

func (e *Engine) signupFlowDeps() internalflows.SignupDeps {
	return internalflows.SignupDeps{
		FindByEmail: func(ctx context.Context, email string) (internalflows.User, error) {
			u, err := e.users.GetUserByEmail(ctx, email)
			return toFlowUser(u), err
		},
		Create: func(ctx context.Context, req internalflows.SignupRequest) (internalflows.User, error) {
			u, err := e.users.CreateUser(ctx, CreateUserInput{
				Name:     req.Name,
				Email:    req.Email,
				Password: req.Password,
				Role:     RoleCustomer,
			})
			return toFlowUser(u), err
		},
		UserNotFound:  ErrUserNotFound,
		AccountExists: ErrAccountExists,
		Issue:         e.issueDeps(),
		Store:         e.store,
	}
}

// Login checks email and password and starts a new session, replacing any
// previous one for the same identity. Unknown emails and wrong passwords both
// yield ErrInvalidCredentials. When rate limiting is enabled, an exhausted
// failed-attempt budget yields ErrLoginRateLimited before any password check.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if err := e.checkLoginLimit(ctx, email); err != nil {
		return nil, err
	}

	res := internalflows.RunLogin(ctx, email, plaintext, e.loginFlowDeps())

	switch res.Failure {
	case internalflows.LoginFailureNone:
		e.resetLoginLimit(ctx, email)
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, true, res.User.ID, nil, nil)
		return authResult(res.User, res.Tokens), nil
	case internalflows.LoginFailureUnknownUser, internalflows.LoginFailureBadPassword:
		e.recordLoginFailure(ctx, email)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.User.ID, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	case internalflows.LoginFailureLookup, internalflows.LoginFailureCompare:
		e.metricInc(MetricLoginFailure)
		err := fmt.Errorf("%w: %v", ErrUserLookupFailed, res.Err)
		e.logger.ErrorContext(ctx, "login user provider failure", slog.Any("error", res.Err))
		e.emitAudit(ctx, auditEventLoginFailure, false, res.User.ID, err, nil)
		return nil, err
	case internalflows.LoginFailureStore:
		e.metricInc(MetricLoginFailure)
		err := e.storeFault(ctx, "login", res.Err)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.User.ID, err, nil)
		return nil, err
	default:
		e.metricInc(MetricLoginFailure)
		err := fmt.Errorf("%w: %v", ErrTokenIssue, res.Err)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.User.ID, err, nil)
		return nil, err
	}
}

func (e *Engine) loginFlowDeps() internalflows.LoginDeps {
	// the flow sees only the public fields; the hash stays here
	var found UserRecord
	return internalflows.LoginDeps{
		FindByEmail: func(ctx context.Context, email string) (internalflows.User, error) {
			u, err := e.users.GetUserByEmail(ctx, email)
			if err != nil {
				return internalflows.User{}, err
			}
			found = u
			return toFlowUser(u), nil
		},
		ComparePassword: func(ctx context.Context, _ internalflows.User, plaintext string) (bool, error) {
			return e.users.ComparePassword(ctx, found, plaintext)
		},
		UserNotFound: ErrUserNotFound,
		Issue:        e.issueDeps(),
		Store:        e.store,
	}
}

// RenewAccess exchanges a current refresh token for a new access and refresh
// token pair. The presented token stops being valid.
//
// A superseded token yields ErrRefreshReuse and leaves the current session
// intact. Every failure except ErrStoreUnavailable and ErrTokenIssue wraps
// ErrUnauthorized.
func (e *Engine) RenewAccess(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res := internalflows.RunRefresh(ctx, refreshToken, internalflows.RefreshDeps{
		Verify:      e.codec.Verify,
		Issue:       e.issueDeps(),
		Store:       e.store,
		ReuseWindow: e.config.Store.ReuseWindow,
		Warn: func(msg string, args ...any) {
			e.logger.WarnContext(ctx, msg, args...)
		},
	})

	refreshInvalid := func(err error, reason string) (*AuthResult, error) {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, res.UserID, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, err
	}

	switch res.Failure {
	case internalflows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, res.UserID, nil, nil)
		return &AuthResult{
			User:         Profile{ID: res.UserID},
			AccessToken:  res.Tokens.Access,
			RefreshToken: res.Tokens.Refresh,
		}, nil
	case internalflows.RefreshFailureMissing:
		return refreshInvalid(ErrRefreshMissing, "missing")
	case internalflows.RefreshFailureExpired:
		return refreshInvalid(ErrRefreshExpired, "expired")
	case internalflows.RefreshFailureInvalid:
		return refreshInvalid(ErrRefreshInvalid, "invalid")
	case internalflows.RefreshFailureSessionNotFound:
		return refreshInvalid(ErrSessionNotFound, "session_not_found")
	case internalflows.RefreshFailureReuse:
		e.metricInc(MetricRefreshReuseDetected)
		e.logger.WarnContext(ctx, "superseded refresh token presented",
			slog.String("user_id", res.UserID),
			slog.Int64("attempts_in_window", res.ReuseCount),
		)
		e.emitAudit(ctx, auditEventRefreshReuseDetected, false, res.UserID, ErrRefreshReuse, func() map[string]string {
			return map[string]string{"attempts_in_window": fmt.Sprint(res.ReuseCount)}
		})
		return nil, ErrRefreshReuse
	case internalflows.RefreshFailureRotate:
		e.metricInc(MetricRefreshFailure)
		err := e.storeFault(ctx, "renew_access", res.Err)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, res.UserID, err, nil)
		return nil, err
	default:
		e.metricInc(MetricRefreshFailure)
		err := fmt.Errorf("%w: %v", ErrTokenIssue, res.Err)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, res.UserID, err, nil)
		return nil, err
	}
}

// Logout ends the session named by refreshToken. A missing or unverifiable token
// is not an error; only a credential store failure is returned.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	res := internalflows.RunLogout(ctx, refreshToken, e.logoutFlowDeps())
	if res.Err != nil {
		err := e.storeFault(ctx, "logout", res.Err)
		e.emitAudit(ctx, auditEventLogout, false, res.UserID, err, nil)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, res.UserID, nil, func() map[string]string {
		if res.Skipped {
			return map[string]string{"revoked": "false"}
		}
		return map[string]string{"revoked": "true"}
	})
	return nil
}

// RevokeSessions deletes the stored refresh credential of userID, signing the
// identity out everywhere once its access token expires.
func (e *Engine) RevokeSessions(ctx context.Context, userID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: empty user id", ErrUserNotFound)
	}

	if err := internalflows.RunRevoke(ctx, userID, e.logoutFlowDeps()); err != nil {
		err = e.storeFault(ctx, "revoke_sessions", err)
		e.emitAudit(ctx, auditEventSessionsRevoked, false, userID, err, nil)
		return err
	}

	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventSessionsRevoked, true, userID, nil, nil)
	return nil
}

func (e *Engine) logoutFlowDeps() internalflows.LogoutDeps {
	return internalflows.LogoutDeps{
		Verify: e.codec.Verify,
		Store:  e.store,
	}
}

// isServerFault reports whether err should surface as a 5xx.
func isServerFault(err error) bool {
	return err != nil && !errors.Is(err, ErrUnauthorized) && !errors.Is(err, ErrForbidden)
}
