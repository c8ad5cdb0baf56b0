package flows

import (
	"context"
	"errors"
)

// SignupFailureKind classifies signup failures for root-level mapping.
type SignupFailureKind int

const (
	SignupFailureNone SignupFailureKind = iota
	SignupFailureDuplicate
	SignupFailureLookup
	SignupFailureCreate
	SignupFailureIssue
	SignupFailureStore
)

type SignupRequest struct {
	Name     string
	Email    string
	Password string
}

// SignupResult carries the created user and its first session, or failure metadata.
type SignupResult struct {
	Failure SignupFailureKind
	Err     error
	User    User
	Tokens  TokenPair
}

// SignupDeps captures signup flow dependencies.
type SignupDeps struct {
	FindByEmail   func(ctx context.Context, email string) (User, error)
	Create        func(ctx context.Context, req SignupRequest) (User, error)
	UserNotFound  error
	AccountExists error
	Issue         IssueDeps
	Store         CredentialWriter
}

// RunSignup creates the account when the email is free and logs the new
// identity in. A duplicate reported by Create (a concurrent signup that won
// the race) is classified the same as one found up front.
func RunSignup(ctx context.Context, req SignupRequest, deps SignupDeps) SignupResult {
	_, err := deps.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return SignupResult{Failure: SignupFailureDuplicate, Err: deps.AccountExists}
	case deps.UserNotFound == nil || !errors.Is(err, deps.UserNotFound):
		return SignupResult{Failure: SignupFailureLookup, Err: err}
	}

	user, err := deps.Create(ctx, req)
	if err != nil {
		if deps.AccountExists != nil && errors.Is(err, deps.AccountExists) {
			return SignupResult{Failure: SignupFailureDuplicate, Err: err}
		}
		return SignupResult{Failure: SignupFailureCreate, Err: err}
	}

	login := finishLogin(ctx, user, deps.Issue, deps.Store)
	switch login.Failure {
	case LoginFailureIssue:
		return SignupResult{Failure: SignupFailureIssue, Err: login.Err, User: user}
	case LoginFailureStore:
		return SignupResult{Failure: SignupFailureStore, Err: login.Err, User: user}
	}
	return SignupResult{User: user, Tokens: login.Tokens}
}
