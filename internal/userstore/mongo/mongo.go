// Package mongo is the MongoDB-backed cartauth.UserProvider.
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrEthical07/cartauth/password"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	defaultDBName   = "ecommerce_db"
)

// Store is a thin adapter over the users collection.
type Store struct {
	client *mongodriver.Client
	db     *mongodriver.Database
	users  *mongodriver.Collection
	hasher *password.Multi
}

// New connects to MongoDB, pings the primary and ensures the users indexes.
// The database name is taken from the URI path. A nil hasher selects
// password.Default().
func New(ctx context.Context, uri string, hasher *password.Multi) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}
	if hasher == nil {
		hasher = password.Default()
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(uri))
	s := &Store{
		client: cli,
		db:     db,
		users:  db.Collection(usersCollection),
		hasher: hasher,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks the primary is reachable. Used by the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// ensureIndexes creates the unique email index that backs duplicate detection.
func (s *Store) ensureIndexes(ctx context.Context) error {
	models := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	}

	if _, err := s.users.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

// databaseFromURI returns the database named in the URI path, or the default.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
