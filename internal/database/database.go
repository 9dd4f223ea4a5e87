package database

import (
	"context"
	"fmt"
	"time"

	"github.com/spes-app/core/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// CollectionMarkers holds geotagged report documents.
	CollectionMarkers = "markers"
	// CollectionEvents holds event registration documents.
	CollectionEvents = "events"
)

// DB wraps the Mongo client and the application database handle.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a MongoDB connection, verifies it, and ensures indexes.
func Connect(cfg *config.AppConfig) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	d := &DB{client: client, db: client.Database(cfg.MongoDB)}
	if err := d.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return d, nil
}

// Markers returns the markers collection.
func (d *DB) Markers() *mongo.Collection { return d.db.Collection(CollectionMarkers) }

// Events returns the events collection.
func (d *DB) Events() *mongo.Collection { return d.db.Collection(CollectionEvents) }

// Close disconnects the underlying client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// ensureIndexes creates the query and uniqueness indexes the store
// contract depends on: markers are always filtered by event key, and
// event codes are unique after canonicalization.
func (d *DB) ensureIndexes(ctx context.Context) error {
	_, err := d.Markers().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "eventPassword", Value: 1}},
	})
	if err != nil {
		return err
	}

	unique := true
	_, err = d.Events().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "eventCode", Value: 1}},
		Options: &options.IndexOptions{Unique: &unique},
	})
	return err
}
