// Package mongostore implements the repository interfaces on MongoDB.
//
// Entries live in the "journals" collection keyed by ObjectID; the owner is
// stored under "userId". IDs leave this package as 24-character hex strings,
// and a string that is not valid hex can never match a document, so it is
// reported as NotFound like any other unknown id.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sakif/mood-journal/internal/repository"
)

var _ repository.Store = (*Store)(nil)

const (
	entriesCollection = "journals"
	usersCollection   = "users"
)

type Store struct {
	client  *mongo.Client
	entries *mongo.Collection
	users   *mongo.Collection
	clock   clockwork.Clock
}

// New connects to uri, pings the primary and ensures indexes exist.
func New(ctx context.Context, uri, database string, clock clockwork.Clock) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connecting: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: pinging: %w", err)
	}

	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	db := client.Database(database)
	s := &Store{
		client:  client,
		entries: db.Collection(entriesCollection),
		users:   db.Collection(usersCollection),
		clock:   clock,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: creating indexes: %w", err)
	}

	return s, nil
}

// ensureIndexes is the document-store counterpart of the SQL migrations.
// Creating an index that already exists with the same keys and options is a no-op.
func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.entries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return err
	}

	_, err = s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "email", Value: bson.D{{Key: "$gt", Value: ""}}}}),
		},
		{
			Keys:    bson.D{{Key: "githubId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// now truncates to milliseconds, the resolution BSON dates store.
func (s *Store) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}
