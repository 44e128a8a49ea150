package roleconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	databaseName   = "discord_bot"
	collectionName = "ticket_roles"

	connectTimeout   = 10 * time.Second
	maxWriteAttempts = 3
	writeRetryDelay  = 500 * time.Millisecond
	maxWriteDelay    = 5 * time.Second
)

// MongoStore implements Store on a MongoDB collection. Entries live in
// the ticket_roles collection keyed by guild_id and type.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		// Best-effort disconnect; the ping failure is the error that matters.
		_ = client.Disconnect(connectCtx) //nolint:errcheck // cleanup on failed ping
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	slog.Info("connected to MongoDB",
		"database", databaseName,
		"collection", collectionName)

	return &MongoStore{
		client: client,
		coll:   client.Database(databaseName).Collection(collectionName),
	}, nil
}

// Upsert writes an entry keyed by (GuildID, Type), overwriting any prior
// entry for the same key. Transient failures are retried with backoff.
func (s *MongoStore) Upsert(ctx context.Context, e Entry) error {
	filter := bson.M{"guild_id": e.GuildID, "type": e.Type}
	update := bson.M{"$set": e}

	err := retry.Do(
		func() error {
			_, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(maxWriteAttempts),
		retry.Delay(writeRetryDelay),
		retry.MaxDelay(maxWriteDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
	)
	if err != nil {
		return fmt.Errorf("upsert role config: %w", err)
	}

	slog.Debug("persisted role config entry",
		"guild_id", e.GuildID,
		"ticket_type", e.Type,
		"role_id", e.RoleID)
	return nil
}

// FindAll streams every persisted entry out of the collection.
func (s *MongoStore) FindAll(ctx context.Context) ([]Entry, error) {
	cursor, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find role config entries: %w", err)
	}

	var entries []Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode role config entries: %w", err)
	}
	return entries, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect from MongoDB: %w", err)
	}
	return nil
}
