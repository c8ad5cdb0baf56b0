package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/cartauth"
	"github.com/MrEthical07/cartauth/internal/logctx"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// userDoc is the stored shape of a user.
type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d userDoc) record() cartauth.UserRecord {
	return cartauth.UserRecord{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		Role:         cartauth.Role(d.Role),
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func (s *Store) GetUserByEmail(ctx context.Context, email string) (cartauth.UserRecord, error) {
	const op = "userstore/mongo/GetUserByEmail"
	return s.findOne(ctx, op, bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (cartauth.UserRecord, error) {
	const op = "userstore/mongo/GetUserByID"

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		// ids minted elsewhere can never match a stored ObjectID
		return cartauth.UserRecord{}, cartauth.ErrUserNotFound
	}
	return s.findOne(ctx, op, bson.D{{Key: "_id", Value: oid}})
}

func (s *Store) findOne(ctx context.Context, op string, filter bson.D) (cartauth.UserRecord, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return cartauth.UserRecord{}, cartauth.ErrUserNotFound
		}
		return cartauth.UserRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return doc.record(), nil
}

func (s *Store) CreateUser(ctx context.Context, input cartauth.CreateUserInput) (cartauth.UserRecord, error) {
	const op = "userstore/mongo/CreateUser"

	if input.Role == "" {
		input.Role = cartauth.RoleCustomer
	}
	if !input.Role.Valid() {
		return cartauth.UserRecord{}, fmt.Errorf("%s: unknown role %q", op, input.Role)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return cartauth.UserRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	now := toMS(time.Now())
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Name:      input.Name,
		Email:     input.Email,
		Password:  hash,
		Role:      string(input.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return cartauth.UserRecord{}, cartauth.ErrAccountExists
		}
		return cartauth.UserRecord{}, fmt.Errorf("%s: insert: %w", op, err)
	}
	return doc.record(), nil
}

// ComparePassword verifies plaintext against the stored hash. Hashes in an
// outdated format are replaced after a successful match; a failed upgrade
// does not fail the login.
func (s *Store) ComparePassword(ctx context.Context, user cartauth.UserRecord, plaintext string) (bool, error) {
	ok, err := s.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		return false, err
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		if err := s.rehash(ctx, user.ID, plaintext); err != nil {
			logctx.From(ctx).WarnContext(ctx, "password rehash failed",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		}
	}
	return true, nil
}

func (s *Store) rehash(ctx context.Context, userID, plaintext string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}
	_, err = s.users.UpdateByID(ctx, oid, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "password", Value: hash},
			{Key: "updatedAt", Value: toMS(time.Now())},
		}},
	})
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

// SetRole changes a user's role. Used by the seeding command to promote admins.
func (s *Store) SetRole(ctx context.Context, userID string, role cartauth.Role) error {
	const op = "userstore/mongo/SetRole"

	if !role.Valid() {
		return fmt.Errorf("%s: unknown role %q", op, role)
	}
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return cartauth.ErrUserNotFound
	}

	res, err := s.users.UpdateByID(ctx, oid, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "role", Value: string(role)},
			{Key: "updatedAt", Value: toMS(time.Now())},
		}},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return cartauth.ErrUserNotFound
	}
	return nil
}
