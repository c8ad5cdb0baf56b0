package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/cartauth/jwt"
)

// User is the subset of a user record the flows need.
type User struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// TokenPair is a freshly minted access and refresh token.
type TokenPair struct {
	Access  jwt.Token
	Refresh jwt.Token
}

// CredentialWriter persists the refresh credential of an identity.
type CredentialWriter interface {
	Put(ctx context.Context, userID, digest string, ttl time.Duration) error
}

// IssueDeps is shared by every flow that mints a token pair.
type IssueDeps struct {
	Issue      func(userID string, kind jwt.Kind) (jwt.Token, error)
	Digest     func(token string) string
	RefreshTTL time.Duration
}

func (d IssueDeps) mint(userID string) (TokenPair, error) {
	access, err := d.Issue(userID, jwt.KindAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := d.Issue(userID, jwt.KindRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

type establishStage int

const (
	establishOK establishStage = iota
	establishIssue
	establishStore
)

// establish mints a pair for userID and records its refresh credential,
// replacing whatever was stored for that identity.
func establish(ctx context.Context, userID string, deps IssueDeps, store CredentialWriter) (TokenPair, establishStage, error) {
	pair, err := deps.mint(userID)
	if err != nil {
		return TokenPair{}, establishIssue, err
	}
	if err := store.Put(ctx, userID, deps.Digest(pair.Refresh.Value), deps.RefreshTTL); err != nil {
		return TokenPair{}, establishStore, err
	}
	return pair, establishOK, nil
}
