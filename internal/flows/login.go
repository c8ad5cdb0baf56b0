package flows

import (
	"context"
	"errors"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureUnknownUser
	LoginFailureBadPassword
	LoginFailureLookup
	LoginFailureCompare
	LoginFailureIssue
	LoginFailureStore
)

// LoginResult carries the session of a successful login or failure metadata.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	User    User
	Tokens  TokenPair
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	FindByEmail     func(ctx context.Context, email string) (User, error)
	ComparePassword func(ctx context.Context, user User, plaintext string) (bool, error)
	UserNotFound    error
	Issue           IssueDeps
	Store           CredentialWriter
}

// RunLogin checks credentials and, on success, establishes a new session that
// supersedes any previous one for the identity.
func RunLogin(ctx context.Context, email, plaintext string, deps LoginDeps) LoginResult {
	user, err := deps.FindByEmail(ctx, email)
	if err != nil {
		if deps.UserNotFound != nil && errors.Is(err, deps.UserNotFound) {
			return LoginResult{Failure: LoginFailureUnknownUser, Err: err}
		}
		return LoginResult{Failure: LoginFailureLookup, Err: err}
	}

	ok, err := deps.ComparePassword(ctx, user, plaintext)
	if err != nil {
		return LoginResult{Failure: LoginFailureCompare, Err: err, User: user}
	}
	if !ok {
		return LoginResult{Failure: LoginFailureBadPassword, User: user}
	}

	return finishLogin(ctx, user, deps.Issue, deps.Store)
}

func finishLogin(ctx context.Context, user User, issue IssueDeps, store CredentialWriter) LoginResult {
	pair, stage, err := establish(ctx, user.ID, issue, store)
	switch stage {
	case establishIssue:
		return LoginResult{Failure: LoginFailureIssue, Err: err, User: user}
	case establishStore:
		return LoginResult{Failure: LoginFailureStore, Err: err, User: user}
	}
	return LoginResult{User: user, Tokens: pair}
}
