package cartauth

import (
	"context"
	"time"

	"github.com/MrEthical07/cartauth/jwt"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// UserRecord is the full user record owned by the [UserProvider]. The Engine
// reads it and never mutates it.
type UserRecord struct {
	ID           string
	Name         string
	Email        string
	Role         Role
	PasswordHash string `json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public projection of a user returned to clients.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Profile returns the client-safe projection of u.
func (u UserRecord) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// CreateUserInput is handed to [UserProvider.CreateUser]. Password is plaintext;
// hashing is the provider's job.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// SignupRequest is the input of [Engine.Signup].
type SignupRequest struct {
	Name     string
	Email    string
	Password string
}

// Token is a signed token and its absolute expiry.
type Token = jwt.Token

// AuthResult is returned by Signup, Login and RenewAccess. The HTTP layer turns
// the two tokens into cookies.
type AuthResult struct {
	User         Profile
	AccessToken  Token
	RefreshToken Token
}

// UserProvider is the user-record collaborator. Lookups that find nothing must
// return (or wrap) ErrUserNotFound; CreateUser must return (or wrap)
// ErrAccountExists for a taken email.
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	ComparePassword(ctx context.Context, user UserRecord, plaintext string) (bool, error)
}
