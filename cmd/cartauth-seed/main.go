// Command cartauth-seed creates the first admin account, or promotes an
// existing account to admin.
//
// Usage:
//
//	cartauth-seed -email admin@shop.local -password 's3cret!'
//
// Flags fall back to MONGO_URI, ADMIN_EMAIL, ADMIN_NAME and ADMIN_PASSWORD
// (a .env file is honoured).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/cartauth"
	mongostore "github.com/MrEthical07/cartauth/internal/userstore/mongo"
	"github.com/joho/godotenv"
)

type adminStore interface {
	GetUserByEmail(ctx context.Context, email string) (cartauth.UserRecord, error)
	CreateUser(ctx context.Context, input cartauth.CreateUserInput) (cartauth.UserRecord, error)
	SetRole(ctx context.Context, userID string, role cartauth.Role) error
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info(".env file not found, using environment")
	}

	uri := flag.String("mongo-uri", os.Getenv("MONGO_URI"), "MongoDB connection string")
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	name := flag.String("name", envOr("ADMIN_NAME", "Admin"), "admin display name")
	pass := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password, used only when the account is created")
	flag.Parse()

	if *uri == "" || *email == "" {
		slog.Error("mongo uri and admin email are required (-mongo-uri/MONGO_URI, -email/ADMIN_EMAIL)")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := mongostore.New(ctx, *uri, nil)
	if err != nil {
		slog.Error("mongo connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = store.Close(context.Background()) }()

	created, err := seedAdmin(ctx, store, *name, *email, *pass)
	if err != nil {
		slog.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
	if created {
		fmt.Printf("admin created: %s\n", strings.ToLower(*email))
	} else {
		fmt.Printf("admin role granted: %s\n", strings.ToLower(*email))
	}
}

// seedAdmin reports whether a new account was created. An existing account
// keeps its password and only has its role raised.
func seedAdmin(ctx context.Context, store adminStore, name, email, pass string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == cartauth.RoleAdmin {
			return false, nil
		}
		return false, store.SetRole(ctx, existing.ID, cartauth.RoleAdmin)
	case !errors.Is(err, cartauth.ErrUserNotFound):
		return false, err
	}

	if pass == "" {
		return false, errors.New("password required to create a new admin (-password/ADMIN_PASSWORD)")
	}
	_, err = store.CreateUser(ctx, cartauth.CreateUserInput{
		Name:     name,
		Email:    email,
		Password: pass,
		Role:     cartauth.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
