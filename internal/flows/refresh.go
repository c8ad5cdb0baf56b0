package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/cartauth/jwt"
	"github.com/MrEthical07/cartauth/session"
)

// RefreshFailureKind classifies renewal failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureExpired
	RefreshFailureInvalid
	RefreshFailureSessionNotFound
	RefreshFailureReuse
	RefreshFailureRotate
	RefreshFailureIssue
)

// RefreshResult carries the rotated token pair or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	UserID  string
	Tokens  TokenPair
	// ReuseCount is the number of superseded presentations in the current window.
	ReuseCount int64
}

type RefreshCredentialStore interface {
	Rotate(ctx context.Context, userID, presented, next string, ttl time.Duration) error
	TrackReuse(ctx context.Context, userID string, window time.Duration) (int64, error)
}

// RefreshDeps captures renewal flow dependencies.
type RefreshDeps struct {
	Verify      func(token string, kind jwt.Kind) (*jwt.Claims, error)
	Issue       IssueDeps
	Store       RefreshCredentialStore
	ReuseWindow time.Duration
	Warn        func(string, ...any)
}

// RunRefresh verifies the presented refresh token and swaps it for a new pair.
// The stored credential must equal the presented one; otherwise the token has
// been superseded and the stored credential is left as is.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if refreshToken == "" {
		return RefreshResult{Failure: RefreshFailureMissing}
	}

	claims, err := deps.Verify(refreshToken, jwt.KindRefresh)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return RefreshResult{Failure: RefreshFailureExpired, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureInvalid, Err: err}
	}
	userID := claims.UserID

	pair, err := deps.Issue.mint(userID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, UserID: userID}
	}

	err = deps.Store.Rotate(
		ctx,
		userID,
		deps.Issue.Digest(refreshToken),
		deps.Issue.Digest(pair.Refresh.Value),
		deps.Issue.RefreshTTL,
	)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrMismatch):
			count, trackErr := deps.Store.TrackReuse(ctx, userID, deps.ReuseWindow)
			if trackErr != nil && deps.Warn != nil {
				deps.Warn("cartauth: refresh reuse tracking failed", "user_id", userID)
			}
			return RefreshResult{Failure: RefreshFailureReuse, Err: err, UserID: userID, ReuseCount: count}
		case errors.Is(err, session.ErrNotFound):
			return RefreshResult{Failure: RefreshFailureSessionNotFound, Err: err, UserID: userID}
		default:
			return RefreshResult{Failure: RefreshFailureRotate, Err: err, UserID: userID}
		}
	}

	return RefreshResult{UserID: userID, Tokens: pair}
}
