package cartauth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is the parent of every authentication failure (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is the parent of every authorization failure (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)

	ErrTokenMissing  = fmt.Errorf("%w: token not found", ErrUnauthorized)
	ErrTokenExpired  = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrTokenInvalid  = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrCallerUnknown = fmt.Errorf("%w: user not found", ErrUnauthorized)

	ErrRefreshMissing = fmt.Errorf("%w: refresh token not found", ErrUnauthorized)
	ErrRefreshExpired = fmt.Errorf("%w: refresh token expired", ErrUnauthorized)
	ErrRefreshInvalid = fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	// ErrRefreshReuse is returned when a superseded refresh token is presented.
	ErrRefreshReuse = fmt.Errorf("%w: refresh token reuse", ErrUnauthorized)
	// ErrSessionNotFound is returned when no refresh credential is stored for the identity.
	ErrSessionNotFound = fmt.Errorf("%w: session not found", ErrUnauthorized)

	// ErrAdminOnly is returned by AuthorizeAdmin for non-admin callers.
	ErrAdminOnly = fmt.Errorf("%w: admin only", ErrForbidden)

	// ErrUserNotFound must be returned (or wrapped) by UserProvider lookups that find nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountExists is returned by Signup, and must be returned by UserProvider.CreateUser,
	// when the email is already registered.
	ErrAccountExists = errors.New("user already exists")
	// ErrInvalidSignup is returned by Signup for a malformed request.
	ErrInvalidSignup = errors.New("invalid signup request")

	// ErrStoreUnavailable wraps credential store failures. It is a server fault, never a 401.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrUserLookupFailed wraps UserProvider failures other than not-found.
	ErrUserLookupFailed = errors.New("user lookup failed")
	// ErrTokenIssue wraps signing failures.
	ErrTokenIssue = errors.New("token issue failed")
	// ErrInvalidConfig is returned by Build and Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrLoginRateLimited is returned by Login once the failed-attempt budget of
	// the account or client address is used up (HTTP 429).
	ErrLoginRateLimited = errors.New("too many login attempts")

	// ErrEngineNotReady is returned when a nil or partially built Engine is used.
	ErrEngineNotReady = errors.New("engine not ready")
)
