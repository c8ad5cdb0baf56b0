package cartauth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSignupSuccess        = "signup_success"
	auditEventSignupFailure        = "signup_failure"
	auditEventSignupDuplicate      = "signup_duplicate"
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventLoginRateLimited     = "login_rate_limited"
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshInvalid       = "refresh_invalid"
	auditEventRefreshReuseDetected = "refresh_reuse_detected"
	auditEventLogout               = "logout"
	auditEventSessionsRevoked      = "sessions_revoked"
	auditEventAccessDenied         = "access_denied"
	auditEventAdminDenied          = "admin_denied"
)

// AuditErrorCode is the stable error label carried in AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrTokenMissing       AuditErrorCode = "token_missing"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrRefreshReuse       AuditErrorCode = "refresh_reuse"
	auditErrSessionNotFound    AuditErrorCode = "session_not_found"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrAdminOnly          AuditErrorCode = "admin_only"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrInvalidInput       AuditErrorCode = "invalid_input"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		RequestID: requestIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	// specific sentinels first: most of them also wrap ErrUnauthorized
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrTokenMissing), errors.Is(err, ErrRefreshMissing):
		return auditErrTokenMissing
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrRefreshExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrRefreshInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrRefreshReuse):
		return auditErrRefreshReuse
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrCallerUnknown), errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrAdminOnly):
		return auditErrAdminOnly
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrInvalidSignup):
		return auditErrInvalidInput
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrUserLookupFailed):
		return auditErrUnavailable
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	default:
		return auditErrInternal
	}
}
