// Package mongo implements the repository interfaces on MongoDB.
//
// Accounts live in the "users" collection and notes in "notes". Document IDs
// are ObjectIDs rendered as 24-char hex strings at the model boundary; a note's
// owner is stored as that plain string so dangling owners need no lookup.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sakif/notekeeper/internal/repository"
)

const (
	usersCollection = "users"
	notesCollection = "notes"

	// DefaultDatabase is used when no database name is supplied.
	DefaultDatabase = "notes"

	connectTimeout    = 10 * time.Second
	disconnectTimeout = 5 * time.Second
)

var _ repository.Store = (*DB)(nil)

// DB holds a connected client and the notes database handle.
type DB struct {
	client *mongo.Client
	users  *mongo.Collection
	notes  *mongo.Collection
}

// New connects to uri, pings the primary and ensures indexes exist.
func New(ctx context.Context, uri, database string) (*DB, error) {
	if database == "" {
		database = DefaultDatabase
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(connectTimeout).
		SetConnectTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging server: %w", err)
	}

	dbh := client.Database(database)
	db := &DB{
		client: client,
		users:  dbh.Collection(usersCollection),
		notes:  dbh.Collection(notesCollection),
	}

	if err := db.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: creating indexes: %w", err)
	}
	return db, nil
}

// ensureIndexes is idempotent; the unique email index is what makes
// concurrent signups with the same email resolve to exactly one account.
func (db *DB) ensureIndexes(ctx context.Context) error {
	_, err := db.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("users.email: %w", err)
	}

	_, err = db.notes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("userId_createdAt"),
	})
	if err != nil {
		return fmt.Errorf("notes.userId: %w", err)
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, readpref.Primary())
}

func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return db.client.Disconnect(ctx)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// now matches BSON datetime precision (milliseconds).
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
