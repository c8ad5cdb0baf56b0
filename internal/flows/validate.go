package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/cartauth/jwt"
)

// ValidateFailureKind classifies access verification failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMissing
	ValidateFailureExpired
	ValidateFailureInvalid
	ValidateFailureUserNotFound
	ValidateFailureLookup
)

// ValidateResult carries the resolved caller or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.Claims
	User    User
}

// ValidateDeps captures access verification dependencies.
type ValidateDeps struct {
	Verify       func(token string, kind jwt.Kind) (*jwt.Claims, error)
	LoadUser     func(ctx context.Context, userID string) (User, error)
	UserNotFound error
}

// RunValidate verifies an access token and resolves the identity it names.
func RunValidate(ctx context.Context, accessToken string, deps ValidateDeps) ValidateResult {
	if accessToken == "" {
		return ValidateResult{Failure: ValidateFailureMissing}
	}

	claims, err := deps.Verify(accessToken, jwt.KindAccess)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return ValidateResult{Failure: ValidateFailureExpired, Err: err}
		}
		return ValidateResult{Failure: ValidateFailureInvalid, Err: err}
	}

	user, err := deps.LoadUser(ctx, claims.UserID)
	if err != nil {
		if deps.UserNotFound != nil && errors.Is(err, deps.UserNotFound) {
			return ValidateResult{Failure: ValidateFailureUserNotFound, Err: err, Claims: claims}
		}
		return ValidateResult{Failure: ValidateFailureLookup, Err: err, Claims: claims}
	}

	return ValidateResult{Claims: claims, User: user}
}
