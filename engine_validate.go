package cartauth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	internalflows "github.com/MrEthical07/cartauth/internal/flows"
)

// VerifyAccess verifies an access token and resolves the caller.
//
// An empty token yields ErrTokenMissing, an expired one ErrTokenExpired, any
// other rejection ErrTokenInvalid, and a deleted user ErrCallerUnknown. Failures
// of the user provider yield ErrUserLookupFailed.
//
//	Performance: 0 Redis round trips; 1 user lookup.
func (e *Engine) VerifyAccess(ctx context.Context, accessToken string) (*UserRecord, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	var found UserRecord
	res := internalflows.RunValidate(ctx, accessToken, internalflows.ValidateDeps{
		Verify: e.codec.Verify,
		LoadUser: func(ctx context.Context, userID string) (internalflows.User, error) {
			u, err := e.users.GetUserByID(ctx, userID)
			if err != nil {
				return internalflows.User{}, err
			}
			found = u
			return toFlowUser(u), nil
		},
		UserNotFound: ErrUserNotFound,
	})

	var err error
	switch res.Failure {
	case internalflows.ValidateFailureNone:
		e.metricInc(MetricAccessGranted)
		return &found, nil
	case internalflows.ValidateFailureMissing:
		err = ErrTokenMissing
	case internalflows.ValidateFailureExpired:
		err = ErrTokenExpired
	case internalflows.ValidateFailureInvalid:
		err = ErrTokenInvalid
	case internalflows.ValidateFailureUserNotFound:
		err = ErrCallerUnknown
	default:
		err = fmt.Errorf("%w: %v", ErrUserLookupFailed, res.Err)
	}

	e.metricInc(MetricAccessDenied)
	userID := ""
	if res.Claims != nil {
		userID = res.Claims.UserID
	}
	if isServerFault(err) {
		e.logger.ErrorContext(ctx, "access verification failed", slog.String("user_id", userID), slog.Any("error", res.Err))
	}
	e.emitAudit(ctx, auditEventAccessDenied, false, userID, err, nil)
	return nil, err
}

// AuthorizeAdmin returns ErrAdminOnly unless user has the admin role. A nil user
// (no caller resolved) is also rejected.
func (e *Engine) AuthorizeAdmin(ctx context.Context, user *UserRecord) error {
	if user != nil && user.Role == RoleAdmin {
		return nil
	}

	userID := ""
	if user != nil {
		userID = user.ID
	}
	e.metricInc(MetricAdminDenied)
	e.emitAudit(ctx, auditEventAdminDenied, false, userID, ErrAdminOnly, nil)
	return ErrAdminOnly
}
