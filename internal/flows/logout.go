package flows

import (
	"context"

	"github.com/MrEthical07/cartauth/jwt"
)

type CredentialDeleter interface {
	Delete(ctx context.Context, userID string) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Verify func(token string, kind jwt.Kind) (*jwt.Claims, error)
	Store  CredentialDeleter
}

// LogoutResult reports which identity, if any, was signed out.
type LogoutResult struct {
	UserID string
	// Skipped is set when no verifiable refresh token was presented.
	Skipped bool
	Err     error
}

// RunLogout deletes the stored credential of the identity in refreshToken.
// Missing, expired or invalid tokens are not errors: there is nothing to revoke.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) LogoutResult {
	if refreshToken == "" {
		return LogoutResult{Skipped: true}
	}
	claims, err := deps.Verify(refreshToken, jwt.KindRefresh)
	if err != nil {
		return LogoutResult{Skipped: true}
	}
	return LogoutResult{
		UserID: claims.UserID,
		Err:    deps.Store.Delete(ctx, claims.UserID),
	}
}

// RunRevoke deletes the stored credential of userID regardless of which token
// it belongs to.
func RunRevoke(ctx context.Context, userID string, deps LogoutDeps) error {
	return deps.Store.Delete(ctx, userID)
}
