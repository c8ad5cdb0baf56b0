package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrEthical07/cartauth"
	"github.com/MrEthical07/cartauth/password"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testHasher(t *testing.T) *password.Multi {
	t.Helper()
	primary, err := password.NewArgon2(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	legacy, err := password.NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)
	m, err := password.NewMulti(primary, legacy)
	require.NoError(t, err)
	return m
}

func TestCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := New(testHasher(t))

	u, err := s.CreateUser(ctx, cartauth.CreateUserInput{Name: "Ann", Email: "ann@x.io", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, cartauth.RoleCustomer, u.Role)
	require.NotContains(t, u.PasswordHash, "secret1")

	byEmail, err := s.GetUserByEmail(ctx, "ann@x.io")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Ann", byID.Name)

	_, err = s.GetUserByID(ctx, "missing")
	require.True(t, errors.Is(err, cartauth.ErrUserNotFound))
}

func TestCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := New(testHasher(t))

	_, err := s.CreateUser(ctx, cartauth.CreateUserInput{Name: "Ann", Email: "ann@x.io", Password: "secret1"})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, cartauth.CreateUserInput{Name: "Ann2", Email: "ann@x.io", Password: "secret2"})
	require.ErrorIs(t, err, cartauth.ErrAccountExists)
}

func TestComparePasswordUpgradesBcrypt(t *testing.T) {
	ctx := context.Background()
	s := New(testHasher(t))

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	s.Import(cartauth.UserRecord{ID: "u1", Email: "old@x.io", Role: cartauth.RoleCustomer, PasswordHash: string(legacy)})

	u, _ := s.GetUserByID(ctx, "u1")
	ok, err := s.ComparePassword(ctx, u, "nope-nope")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.ComparePassword(ctx, u, "secret1")
	require.NoError(t, err)
	require.True(t, ok)

	upgraded, _ := s.GetUserByID(ctx, "u1")
	require.True(t, strings.HasPrefix(upgraded.PasswordHash, "$argon2id$"))

	ok, err = s.ComparePassword(ctx, upgraded, "secret1")
	require.NoError(t, err)
	require.True(t, ok)
}
