package main

import (
	"context"
	"testing"

	"github.com/MrEthical07/cartauth"
	"github.com/MrEthical07/cartauth/internal/userstore/memory"
	"github.com/stretchr/testify/require"
)

func TestSeedAdminCreates(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)

	created, err := seedAdmin(ctx, store, "Admin", " Boss@Shop.local ", "admin-pass")
	require.NoError(t, err)
	require.True(t, created)

	u, err := store.GetUserByEmail(ctx, "boss@shop.local")
	require.NoError(t, err)
	require.Equal(t, cartauth.RoleAdmin, u.Role)

	// second run is a no-op
	created, err = seedAdmin(ctx, store, "Admin", "boss@shop.local", "")
	require.NoError(t, err)
	require.False(t, created)
}

func TestSeedAdminPromotesExisting(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)
	_, err := store.CreateUser(ctx, cartauth.CreateUserInput{Name: "Ann", Email: "ann@shop.local", Password: "secret1"})
	require.NoError(t, err)

	created, err := seedAdmin(ctx, store, "ignored", "ann@shop.local", "")
	require.NoError(t, err)
	require.False(t, created)

	u, err := store.GetUserByEmail(ctx, "ann@shop.local")
	require.NoError(t, err)
	require.Equal(t, cartauth.RoleAdmin, u.Role)
	require.Equal(t, "Ann", u.Name)
}

func TestSeedAdminNeedsPassword(t *testing.T) {
	_, err := seedAdmin(context.Background(), memory.New(nil), "Admin", "new@shop.local", "")
	require.Error(t, err)
}
