package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// DefaultMongoDatabase is used when the URI carries no database path.
const DefaultMongoDatabase = "subsonic"

// NewMongoConnection builds a lazily connecting client and returns it with the
// database named in the URI path. Only a malformed URI is an error; an unreachable
// server surfaces on the first operation.
func NewMongoConnection(ctx context.Context, uri string) (*mongo.Client, *mongo.Database, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: invalid uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetMaxPoolSize(5))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: connect: %w", err)
	}

	return client, client.Database(dbName), nil
}

// IsNamespaceExists reports the "collection already exists" server error (code 48).
func IsNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 48 || cmdErr.Name == "NamespaceExists"
	}
	return false
}
